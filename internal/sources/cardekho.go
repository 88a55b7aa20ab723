package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// cardekhoCitySlugs maps display city names to the slugs CarDekho uses in
// its search URLs. Cities outside the map fall back to a lowercased,
// hyphenated form of the name.
var cardekhoCitySlugs = map[string]string{
	"kochi":              "kochi",
	"thiruvananthapuram": "trivandrum",
	"trivandrum":         "trivandrum",
	"kozhikode":          "calicut",
	"calicut":            "calicut",
	"thrissur":           "thrissur",
	"kollam":             "kollam",
	"kannur":             "kannur",
	"palakkad":           "palakkad",
	"alappuzha":          "alappuzha",
	"kottayam":           "kottayam",
	"malappuram":         "malappuram",
}

var (
	cardekhoPriceRe    = regexp.MustCompile(`(?:Rs\.?|₹)\s*[\d.,]+\s*(?i:Lakh|Cr)?`)
	cardekhoLocationRe = regexp.MustCompile(`cars-([A-Za-z-]+?)_`)
)

// CarDekho scrapes used-car listings from cardekho.com. Listing anchors
// carry no stable card class, so each anchor's enclosing card is located
// by walking up the parent chain.
type CarDekho struct {
	fetcher *Fetcher
	itemCap int
}

func NewCarDekho(f *Fetcher, itemCap int) *CarDekho {
	return &CarDekho{fetcher: f, itemCap: itemCap}
}

func (c *CarDekho) Tag() string              { return "cardekho" }
func (c *CarDekho) Kind() models.TrackerKind { return models.KindDeal }

func (c *CarDekho) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	citySlug := cardekhoCitySlug(q.City)
	querySlug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q.Text)), " ", "-")

	searchURL := fmt.Sprintf("https://www.cardekho.com/used-%s-cars+in+%s", querySlug, citySlug)
	if querySlug == "" {
		searchURL = fmt.Sprintf("https://www.cardekho.com/used-cars+in+%s", citySlug)
	}

	doc, err := c.fetcher.FetchDocument(ctx, c.Tag(), searchURL)
	if err != nil {
		return nil, err
	}

	items := parseCarDekho(doc, c.itemCap)
	if len(items) == 0 {
		return nil, parseShapeErr(c.Tag(), fmt.Errorf("no listing anchors on %s", searchURL))
	}
	return items, nil
}

func cardekhoCitySlug(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if slug, ok := cardekhoCitySlugs[key]; ok {
		return slug
	}
	if key == "" {
		return "kochi"
	}
	return strings.ReplaceAll(key, " ", "-")
}

func parseCarDekho(doc *goquery.Document, limit int) []RawItem {
	var items []RawItem
	seen := map[string]bool{}

	doc.Find(`a[href*="/used-car-details/"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		href, _ := link.Attr("href")
		if href == "" || seen[href] {
			return true
		}
		seen[href] = true

		itemURL := href
		if !strings.HasPrefix(itemURL, "http") {
			itemURL = "https://www.cardekho.com" + itemURL
		}

		card := enclosingCard(link)
		cardText := card.Text()

		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(card.Find("h3, h2, .title").First().Text())
		}
		if title == "" {
			return true
		}

		location := ""
		if m := cardekhoLocationRe.FindStringSubmatch(href); m != nil {
			location = strings.ReplaceAll(m[1], "-", " ")
		}

		image := ""
		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			image = src
		}

		items = append(items, RawItem{
			"title":     title,
			"price":     cardekhoPriceRe.FindString(cardText),
			"location":  location,
			"url":       itemURL,
			"image_url": image,
		})
		return true
	})
	return items
}

// enclosingCard climbs at most four levels from a listing anchor, stopping
// before the document body so one card's text never swallows the page.
func enclosingCard(link *goquery.Selection) *goquery.Selection {
	card := link
	for i := 0; i < 4; i++ {
		parent := card.Parent()
		if parent.Length() == 0 || goquery.NodeName(parent) == "body" || goquery.NodeName(parent) == "html" {
			break
		}
		card = parent
	}
	return card
}
