package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// Foundit scrapes foundit.in (formerly Monster India) job search results.
type Foundit struct {
	fetcher *Fetcher
	itemCap int
}

func NewFoundit(f *Fetcher, itemCap int) *Foundit {
	return &Foundit{fetcher: f, itemCap: itemCap}
}

func (f *Foundit) Tag() string              { return "foundit" }
func (f *Foundit) Kind() models.TrackerKind { return models.KindJob }

func (f *Foundit) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	params := url.Values{"query": {q.Text}}
	if q.City != "" {
		params.Set("locations", q.City)
	}

	searchURL := "https://www.foundit.in/srp/results?" + params.Encode()
	doc, err := f.fetcher.FetchDocument(ctx, f.Tag(), searchURL)
	if err != nil {
		return nil, err
	}

	items := parseFoundit(doc, f.itemCap)
	if len(items) == 0 {
		return nil, parseShapeErr(f.Tag(), fmt.Errorf("no job cards on %s", searchURL))
	}
	return items, nil
}

func parseFoundit(doc *goquery.Document, limit int) []RawItem {
	var items []RawItem
	doc.Find(".srpResultCardContainer, .card-apply-content, .jobTuple").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		title := strings.TrimSpace(card.Find(".jobTitle, h3").First().Text())
		if title == "" {
			return true
		}

		jobURL := ""
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				href = "https://www.foundit.in" + href
			}
			jobURL = href
		}

		items = append(items, RawItem{
			"title":      title,
			"company":    strings.TrimSpace(card.Find(".companyName, .company-name").First().Text()),
			"location":   strings.TrimSpace(card.Find(".details.location, .loc-link").First().Text()),
			"experience": strings.TrimSpace(card.Find(".experienceSalary, .exp").First().Text()),
			"url":        jobURL,
		})
		return true
	})
	return items
}
