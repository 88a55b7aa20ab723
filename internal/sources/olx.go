package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// OLX scrapes olx.in search results. The site renders listing cards with
// data-aut-id markers; when those are missing (server-side render skipped)
// the embedded __NEXT_DATA__ payload is parsed instead.
type OLX struct {
	fetcher *Fetcher
	itemCap int
}

func NewOLX(f *Fetcher, itemCap int) *OLX {
	return &OLX{fetcher: f, itemCap: itemCap}
}

func (o *OLX) Tag() string              { return "olx" }
func (o *OLX) Kind() models.TrackerKind { return models.KindDeal }

func (o *OLX) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	searchURL := "https://www.olx.in/items/q-" + url.QueryEscape(q.Text)
	if q.City != "" {
		searchURL += "?city=" + url.QueryEscape(strings.ToLower(q.City))
	}

	doc, err := o.fetcher.FetchDocument(ctx, o.Tag(), searchURL)
	if err != nil {
		return nil, err
	}

	items := parseOLXCards(doc, o.itemCap)
	if len(items) > 0 {
		return items, nil
	}

	items = parseOLXNextData(doc, o.itemCap)
	if len(items) == 0 {
		return nil, parseShapeErr(o.Tag(), fmt.Errorf("no item cards or __NEXT_DATA__ items on %s", searchURL))
	}
	return items, nil
}

func parseOLXCards(doc *goquery.Document, limit int) []RawItem {
	var items []RawItem
	doc.Find(`[data-aut-id="itemBox"]`).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		title := strings.TrimSpace(card.Find(`[data-aut-id="itemTitle"]`).First().Text())
		if title == "" {
			return true
		}

		itemURL := ""
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			itemURL = "https://www.olx.in" + href
		}

		image := ""
		if src, ok := card.Find("img[src]").First().Attr("src"); ok {
			image = src
		}

		items = append(items, RawItem{
			"title":     title,
			"price":     strings.TrimSpace(card.Find(`[data-aut-id="itemPrice"]`).First().Text()),
			"location":  strings.TrimSpace(card.Find(`[data-aut-id="item-location"]`).First().Text()),
			"url":       itemURL,
			"image_url": image,
		})
		return true
	})
	return items
}

var olxSlugSpaces = regexp.MustCompile(`\s+`)

// parseOLXNextData walks the embedded Next.js payload. The shape is
// uncontrolled third-party JSON, so everything is extracted defensively
// through type assertions.
func parseOLXNextData(doc *goquery.Document, limit int) []RawItem {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(script.Text()), &payload); err != nil {
		return nil
	}

	data, _ := digMap(payload, "props", "pageProps", "initialData")["data"].([]any)

	var items []RawItem
	for _, entry := range data {
		if len(items) >= limit {
			break
		}
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		title := stringField(item, "title")
		if title == "" {
			continue
		}

		price := ""
		if priceObj, ok := item["price"].(map[string]any); ok {
			price = stringField(digMap(priceObj, "value"), "display")
		}

		location := ""
		if loc, ok := item["locations_resolved"].(map[string]any); ok {
			location = stringField(loc, "ADMIN_LEVEL_3_name")
			if location == "" {
				location = stringField(loc, "ADMIN_LEVEL_1_name")
			}
		}

		slug := util.Truncate(strings.ToLower(title), 60)
		itemURL := "https://www.olx.in/item/" + stringField(item, "id") + "-" +
			olxSlugSpaces.ReplaceAllString(slug, "-")

		image := ""
		if images, ok := item["images"].([]any); ok && len(images) > 0 {
			if first, ok := images[0].(map[string]any); ok {
				image = stringField(first, "url")
			}
		}

		items = append(items, RawItem{
			"title":       title,
			"price":       price,
			"location":    location,
			"url":         itemURL,
			"image_url":   image,
			"description": stringField(item, "description"),
		})
	}
	return items
}

// digMap descends nested JSON objects, returning an empty map on any miss.
func digMap(m map[string]any, keys ...string) map[string]any {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		current = next
	}
	return current
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; IDs are integral in practice.
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}
