package sources

import (
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// newHotelCollector builds a colly collector tuned for hotel aggregator
// sites, which throttle repeat visitors far more aggressively than the
// classifieds sites the plain fetcher handles.
func newHotelCollector(timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       2 * time.Second,
		RandomDelay: 1 * time.Second,
	})
	extensions.RandomUserAgent(c)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-IN,en;q=0.9")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Headers.Set("Referer", "https://www.google.com/")
	})
	return c
}

// defaultStayDates returns a one-night stay starting tomorrow, used when a
// tracker does not pin its own check-in window.
func defaultStayDates(checkin, checkout string) (string, string) {
	if checkin != "" && checkout != "" {
		return checkin, checkout
	}
	start := time.Now().AddDate(0, 0, 1)
	return start.Format("2006-01-02"), start.AddDate(0, 0, 1).Format("2006-01-02")
}
