package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// OYO scrapes oyorooms.com city listing pages.
type OYO struct {
	timeout time.Duration
	itemCap int
}

func NewOYO(timeout time.Duration, itemCap int) *OYO {
	return &OYO{timeout: timeout, itemCap: itemCap}
}

func (o *OYO) Tag() string              { return "oyo" }
func (o *OYO) Kind() models.TrackerKind { return models.KindHotel }

func (o *OYO) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	city := strings.TrimSpace(q.City)
	if city == "" {
		city = strings.TrimSpace(q.Text)
	}
	citySlug := strings.ReplaceAll(strings.ToLower(city), " ", "-")
	searchURL := fmt.Sprintf("https://www.oyorooms.com/hotels-in-%s/", citySlug)

	var items []RawItem
	c := newHotelCollector(o.timeout)
	c.OnHTML(".hotelCardListing", func(e *colly.HTMLElement) {
		if len(items) >= o.itemCap {
			return
		}
		if err := ctx.Err(); err != nil {
			return
		}

		name := strings.TrimSpace(e.ChildText(".listingHotelDescription__hotelName"))
		if name == "" {
			return
		}

		link := e.ChildAttr("a[href]", "href")
		if strings.HasPrefix(link, "/") {
			link = "https://www.oyorooms.com" + link
		}

		rating := strings.TrimSpace(e.ChildText(".hotelRating__rating"))
		if rating != "" {
			rating += "/5"
		}

		items = append(items, RawItem{
			"title":     name,
			"price":     strings.TrimSpace(e.ChildText(".listingPrice__finalPrice")),
			"location":  strings.TrimSpace(e.ChildText(".listingHotelDescription__hotelAddress")),
			"rating":    rating,
			"url":       link,
			"image_url": e.ChildAttr("img", "src"),
		})
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, networkErr(o.Tag(), err)
	}
	c.Wait()
	if err := ctx.Err(); err != nil {
		return nil, networkErr(o.Tag(), err)
	}
	if len(items) == 0 {
		return nil, parseShapeErr(o.Tag(), fmt.Errorf("no hotel cards on %s", searchURL))
	}
	return items, nil
}
