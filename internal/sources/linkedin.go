package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// LinkedIn scrapes the public (logged-out) job search page on linkedin.com.
type LinkedIn struct {
	fetcher *Fetcher
	itemCap int
}

func NewLinkedIn(f *Fetcher, itemCap int) *LinkedIn {
	return &LinkedIn{fetcher: f, itemCap: itemCap}
}

func (l *LinkedIn) Tag() string              { return "linkedin" }
func (l *LinkedIn) Kind() models.TrackerKind { return models.KindJob }

func (l *LinkedIn) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	params := url.Values{"keywords": {q.Text}}
	if q.City != "" {
		params.Set("location", q.City+", India")
	} else {
		params.Set("location", "India")
	}
	switch strings.ToLower(q.JobType) {
	case "remote":
		params.Set("f_WT", "2")
	case "internship":
		params.Set("f_E", "1")
	}

	searchURL := "https://www.linkedin.com/jobs/search?" + params.Encode()
	doc, err := l.fetcher.FetchDocument(ctx, l.Tag(), searchURL)
	if err != nil {
		return nil, err
	}

	items := parseLinkedIn(doc, l.itemCap)
	if len(items) == 0 {
		return nil, parseShapeErr(l.Tag(), fmt.Errorf("no job cards on %s", searchURL))
	}
	return items, nil
}

func parseLinkedIn(doc *goquery.Document, limit int) []RawItem {
	var items []RawItem
	doc.Find(".base-card, .job-search-card, .result-card").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		title := strings.TrimSpace(card.Find(".base-search-card__title, h3").First().Text())
		if title == "" {
			return true
		}

		jobURL := ""
		if href, ok := card.Find("a.base-card__full-link, a[href]").First().Attr("href"); ok {
			// Tracking query strings make the same posting look like a
			// different URL on every sweep.
			if idx := strings.Index(href, "?"); idx > 0 {
				href = href[:idx]
			}
			jobURL = href
		}

		items = append(items, RawItem{
			"title":       title,
			"company":     strings.TrimSpace(card.Find(".base-search-card__subtitle, h4").First().Text()),
			"location":    strings.TrimSpace(card.Find(".job-search-card__location").First().Text()),
			"posted_date": strings.TrimSpace(card.Find("time").First().Text()),
			"url":         jobURL,
		})
		return true
	})
	return items
}
