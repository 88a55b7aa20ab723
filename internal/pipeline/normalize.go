package pipeline

import (
	"time"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/sources"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// Column ceilings for listing fields. Source pages occasionally stuff whole
// paragraphs into a title, so every scraped field is clamped before storage.
const (
	maxTitleLen    = 500
	maxPriceLen    = 100
	maxLocationLen = 200
	maxURLLen      = 1000
)

// Normalize converts one scraped item into a Listing owned by the tracker.
// Items without a usable URL or title are dropped: a listing that cannot be
// deduplicated or displayed is worthless downstream.
func Normalize(item sources.RawItem, tracker *models.Tracker, sourceTag string) (models.Listing, bool) {
	title := item["title"]
	if title == "" {
		title = item["name"]
	}
	rawURL := item["url"]
	if title == "" || rawURL == "" {
		return models.Listing{}, false
	}

	platform := sourceTag
	if override := item["platform_override"]; override != "" {
		platform = override
	}

	return models.Listing{
		TrackerID:   tracker.ID,
		Title:       util.Truncate(title, maxTitleLen),
		Price:       util.Truncate(item["price"], maxPriceLen),
		Location:    util.Truncate(item["location"], maxLocationLen),
		URL:         util.Truncate(rawURL, maxURLLen),
		ImageURL:    util.Truncate(item["image_url"], maxURLLen),
		Platform:    platform,
		Description: item["description"],
		Company:     item["company"],
		Salary:      item["salary"],
		Rating:      item["rating"],
		IsNew:       true,
		FoundAt:     time.Now().UTC(),
	}, true
}
