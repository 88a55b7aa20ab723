package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// Naukri scrapes naukri.com job search results.
type Naukri struct {
	fetcher *Fetcher
	itemCap int
}

func NewNaukri(f *Fetcher, itemCap int) *Naukri {
	return &Naukri{fetcher: f, itemCap: itemCap}
}

func (n *Naukri) Tag() string              { return "naukri" }
func (n *Naukri) Kind() models.TrackerKind { return models.KindJob }

func (n *Naukri) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	querySlug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q.Text)), " ", "-")
	searchURL := fmt.Sprintf("https://www.naukri.com/%s-jobs", querySlug)
	if q.City != "" {
		citySlug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q.City)), " ", "-")
		searchURL = fmt.Sprintf("https://www.naukri.com/%s-jobs-in-%s", querySlug, citySlug)
	}

	doc, err := n.fetcher.FetchDocument(ctx, n.Tag(), searchURL)
	if err != nil {
		return nil, err
	}

	items := parseNaukri(doc, n.itemCap)
	if len(items) == 0 {
		return nil, parseShapeErr(n.Tag(), fmt.Errorf("no job tuples on %s", searchURL))
	}
	return items, nil
}

func parseNaukri(doc *goquery.Document, limit int) []RawItem {
	var items []RawItem
	doc.Find(".srp-jobtuple-wrapper, .cust-job-tuple, .jobTuple").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		titleLink := card.Find("a.title").First()
		title := strings.TrimSpace(titleLink.Text())
		if title == "" {
			return true
		}
		jobURL, _ := titleLink.Attr("href")

		items = append(items, RawItem{
			"title":       title,
			"company":     strings.TrimSpace(card.Find(".comp-name, a.subTitle").First().Text()),
			"location":    strings.TrimSpace(card.Find(".locWdth, .loc span, .location").First().Text()),
			"salary":      strings.TrimSpace(card.Find(".sal span, .salary").First().Text()),
			"experience":  strings.TrimSpace(card.Find(".expwdth, .exp span").First().Text()),
			"posted_date": strings.TrimSpace(card.Find(".job-post-day").First().Text()),
			"url":         jobURL,
		})
		return true
	})
	return items
}
