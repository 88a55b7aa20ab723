package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// quikrCategories maps tracker categories to Quikr URL path segments.
var quikrCategories = map[string]string{
	"cars":        "Cars",
	"bikes":       "Bikes",
	"mobiles":     "Mobiles-Tablets",
	"electronics": "Electronics-Appliances",
	"furniture":   "Home-Furniture-Garden",
	"real estate": "Real-Estate",
}

// Quikr scrapes quikr.com classifieds search results.
type Quikr struct {
	fetcher *Fetcher
	itemCap int
}

func NewQuikr(f *Fetcher, itemCap int) *Quikr {
	return &Quikr{fetcher: f, itemCap: itemCap}
}

func (q *Quikr) Tag() string              { return "quikr" }
func (q *Quikr) Kind() models.TrackerKind { return models.KindDeal }

func (q *Quikr) Fetch(ctx context.Context, query Query) ([]RawItem, error) {
	category, ok := quikrCategories[strings.ToLower(strings.TrimSpace(query.Category))]
	if !ok {
		category = "Cars"
	}
	city := strings.ToLower(strings.TrimSpace(query.City))
	if city == "" {
		city = "kochi"
	}

	searchURL := fmt.Sprintf("https://www.quikr.com/%s/w-%s?q=%s",
		category, url.PathEscape(city), url.QueryEscape(query.Text))

	doc, err := q.fetcher.FetchDocument(ctx, q.Tag(), searchURL)
	if err != nil {
		return nil, err
	}

	items := parseQuikr(doc, q.itemCap)
	if len(items) == 0 {
		return nil, parseShapeErr(q.Tag(), fmt.Errorf("no listing cards on %s", searchURL))
	}
	return items, nil
}

func parseQuikr(doc *goquery.Document, limit int) []RawItem {
	var items []RawItem
	doc.Find(`.snb-tile, .list-view-item, [data-testid="listing-card"]`).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		title := strings.TrimSpace(card.Find(".title, h3, h2, a[title]").First().Text())
		if title == "" {
			if alt, ok := card.Find("a[title]").First().Attr("title"); ok {
				title = strings.TrimSpace(alt)
			}
		}
		if title == "" {
			return true
		}

		itemURL := ""
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			itemURL = href
			if strings.HasPrefix(itemURL, "//") {
				itemURL = "https:" + itemURL
			} else if strings.HasPrefix(itemURL, "/") {
				itemURL = "https://www.quikr.com" + itemURL
			}
		}

		image := ""
		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			image = src
		}

		items = append(items, RawItem{
			"title":     title,
			"price":     strings.TrimSpace(card.Find(".price, .listing-price, [data-testid='price']").First().Text()),
			"location":  strings.TrimSpace(card.Find(".location, .locality, [data-testid='location']").First().Text()),
			"url":       itemURL,
			"image_url": image,
		})
		return true
	})
	return items
}
