package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// Booking scrapes booking.com property search results.
type Booking struct {
	timeout time.Duration
	itemCap int
}

func NewBooking(timeout time.Duration, itemCap int) *Booking {
	return &Booking{timeout: timeout, itemCap: itemCap}
}

func (b *Booking) Tag() string              { return "booking" }
func (b *Booking) Kind() models.TrackerKind { return models.KindHotel }

func (b *Booking) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	city := strings.TrimSpace(q.City)
	if city == "" {
		city = strings.TrimSpace(q.Text)
	}
	checkin, checkout := defaultStayDates(q.Checkin, q.Checkout)
	guests, rooms := q.Guests, q.Rooms
	if guests <= 0 {
		guests = 2
	}
	if rooms <= 0 {
		rooms = 1
	}

	params := url.Values{
		"ss":           {city},
		"checkin":      {checkin},
		"checkout":     {checkout},
		"group_adults": {fmt.Sprint(guests)},
		"no_rooms":     {fmt.Sprint(rooms)},
		"lang":         {"en-gb"},
	}
	searchURL := "https://www.booking.com/searchresults.html?" + params.Encode()

	var items []RawItem
	c := newHotelCollector(b.timeout)
	c.OnHTML(`[data-testid="property-card"]`, func(e *colly.HTMLElement) {
		if len(items) >= b.itemCap {
			return
		}
		if err := ctx.Err(); err != nil {
			return
		}

		name := strings.TrimSpace(e.ChildText(`[data-testid="title"]`))
		if name == "" {
			return
		}

		link := e.ChildAttr("a[data-testid='title-link']", "href")
		if link == "" {
			link = e.ChildAttr("a[href]", "href")
		}
		if idx := strings.Index(link, "?"); idx > 0 {
			link = link[:idx]
		}

		rating := strings.TrimSpace(e.ChildText(`[data-testid="review-score"] div`))
		if rating != "" {
			rating += "/10"
		}

		items = append(items, RawItem{
			"title":     name,
			"price":     strings.TrimSpace(e.ChildText(`[data-testid="price-and-discounted-price"]`)),
			"location":  strings.TrimSpace(e.ChildText(`[data-testid="address"]`)),
			"rating":    rating,
			"url":       link,
			"image_url": e.ChildAttr("img", "src"),
		})
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, networkErr(b.Tag(), err)
	}
	c.Wait()
	if err := ctx.Err(); err != nil {
		return nil, networkErr(b.Tag(), err)
	}
	if len(items) == 0 {
		return nil, parseShapeErr(b.Tag(), fmt.Errorf("no property cards on %s", searchURL))
	}
	return items, nil
}
