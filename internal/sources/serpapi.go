package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// SettingGetter supplies runtime configuration values such as API keys.
type SettingGetter interface {
	Get(key, def string) string
}

const serpAPIKeySetting = "serpapi_key"

var serpPriceRe = regexp.MustCompile(`(?i)(?:Rs\.?|₹|INR)\s*[\d,]+(?:\.\d+)?\s*(?:lakh|lac|cr)?`)

// SerpAPI queries Google search results through serpapi.com, covering
// marketplaces whose own pages resist direct scraping. Two site-restricted
// queries run concurrently and their results are merged with URL dedup.
type SerpAPI struct {
	fetcher  *Fetcher
	settings SettingGetter
	itemCap  int
}

func NewSerpAPI(f *Fetcher, settings SettingGetter, itemCap int) *SerpAPI {
	return &SerpAPI{fetcher: f, settings: settings, itemCap: itemCap}
}

func (s *SerpAPI) Tag() string              { return "serpapi" }
func (s *SerpAPI) Kind() models.TrackerKind { return models.KindDeal }

func (s *SerpAPI) Fetch(ctx context.Context, q Query) ([]RawItem, error) {
	apiKey := s.settings.Get(serpAPIKeySetting, "")
	if apiKey == "" {
		return nil, networkErr(s.Tag(), fmt.Errorf("setting %q is not configured", serpAPIKeySetting))
	}

	locPart := ""
	if q.City != "" {
		locPart = " " + q.City
	}
	siteQueries := []string{
		q.Text + locPart + " site:olx.in OR site:quikr.com",
		q.Text + locPart + " for sale price",
	}

	var mu sync.Mutex
	merged := make([]RawItem, 0, s.itemCap)
	seen := map[string]bool{}

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, sq := range siteQueries {
		grp.Go(func() error {
			results, err := s.search(grpCtx, apiKey, sq)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, item := range results {
				if len(merged) >= s.itemCap {
					break
				}
				if u := item["url"]; u == "" || seen[u] {
					continue
				}
				seen[item["url"]] = true
				merged = append(merged, item)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Snippet   string `json:"snippet"`
		Thumbnail string `json:"thumbnail"`
	} `json:"organic_results"`
}

func (s *SerpAPI) search(ctx context.Context, apiKey, query string) ([]RawItem, error) {
	params := url.Values{
		"engine":  {"google"},
		"q":       {query},
		"gl":      {"in"},
		"hl":      {"en"},
		"num":     {"20"},
		"api_key": {apiKey},
	}

	var resp serpResponse
	if err := s.fetcher.FetchJSON(ctx, s.Tag(), "https://serpapi.com/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, networkErr(s.Tag(), fmt.Errorf("serpapi: %s", resp.Error))
	}

	items := make([]RawItem, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		if r.Title == "" || r.Link == "" {
			continue
		}
		item := RawItem{
			"title":       r.Title,
			"price":       serpPriceRe.FindString(r.Title + " " + r.Snippet),
			"url":         r.Link,
			"image_url":   r.Thumbnail,
			"description": r.Snippet,
		}
		if platform := platformFromURL(r.Link); platform != "" {
			item["platform_override"] = platform
		}
		items = append(items, item)
	}
	return items, nil
}

// platformFromURL identifies the marketplace a search hit points at, so
// results can be attributed to the real source rather than the aggregator.
func platformFromURL(link string) string {
	host := strings.ToLower(link)
	switch {
	case strings.Contains(host, "olx.in"):
		return "olx"
	case strings.Contains(host, "quikr.com"):
		return "quikr"
	case strings.Contains(host, "cardekho.com"):
		return "cardekho"
	case strings.Contains(host, "facebook.com"):
		return "facebook"
	}
	return ""
}
