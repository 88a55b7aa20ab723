package pipeline

import (
	"strings"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// stateCities maps a state name used as a tracker "city" to the cities it
// covers. A tracker watching a whole state accepts listings from any of its
// member cities.
var stateCities = map[string][]string{
	"kerala": {
		"kochi", "ernakulam", "thiruvananthapuram", "trivandrum",
		"kozhikode", "calicut", "thrissur", "kollam", "kannur",
		"palakkad", "alappuzha", "kottayam", "malappuram",
		"pathanamthitta", "idukki", "wayanad", "kasaragod",
	},
}

// Admit decides whether a normalized listing enters storage for a tracker.
// existingURLs holds every URL already stored for the tracker plus any URL
// accepted earlier in the same check, so duplicates within one batch are
// rejected too.
func Admit(listing *models.Listing, tracker *models.Tracker, existingURLs map[string]bool) bool {
	if existingURLs[listing.URL] {
		return false
	}
	if !priceWithinRange(listing.Price, tracker.MinPrice, tracker.MaxPrice) {
		return false
	}
	if tracker.Kind == models.KindDeal && !locationMatches(listing.Location, tracker.City) {
		return false
	}
	return true
}

// priceWithinRange applies the tracker's price bounds. Listings whose price
// text carries no number pass unconditionally; a missing price is not
// evidence the listing is out of range.
func priceWithinRange(priceText string, min, max *int) bool {
	if min == nil && max == nil {
		return true
	}
	price, ok := util.ExtractPrice(priceText)
	if !ok {
		return true
	}
	if min != nil && price < *min {
		return false
	}
	if max != nil && price > *max {
		return false
	}
	return true
}

// locationMatches compares a listing location against the tracker city.
// Empty listing locations pass: classifieds frequently omit the field and
// rejecting those would hide most of the inventory.
func locationMatches(listingLocation, trackerCity string) bool {
	loc := strings.ToLower(strings.TrimSpace(listingLocation))
	city := strings.ToLower(strings.TrimSpace(trackerCity))
	if loc == "" || city == "" {
		return true
	}

	if members, ok := stateCities[city]; ok {
		for _, member := range members {
			if strings.Contains(loc, member) {
				return true
			}
		}
		return strings.Contains(loc, city)
	}

	return strings.Contains(loc, city) || strings.Contains(city, loc)
}
