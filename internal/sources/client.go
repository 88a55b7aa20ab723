package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/util"
)

// Classifieds and job boards block the default Go User-Agent outright, so
// every request goes out looking like a desktop Chrome.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher is the shared timeout-bounded HTTP client for scraping adapters.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchDocument GETs urlStr and parses the body as HTML. Transport failures
// and non-2xx statuses come back as network-kind FetchErrors attributed to
// source; an unparseable body is a parse-shape error.
func (f *Fetcher) FetchDocument(ctx context.Context, source, urlStr string) (*goquery.Document, error) {
	res, err := f.get(ctx, source, urlStr)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, parseShapeErr(source, fmt.Errorf("failed to parse HTML from %s: %w", urlStr, err))
	}
	return doc, nil
}

// FetchJSON GETs urlStr and decodes the body into out.
func (f *Fetcher) FetchJSON(ctx context.Context, source, urlStr string, out any) error {
	res, err := f.get(ctx, source, urlStr)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return parseShapeErr(source, fmt.Errorf("failed to decode JSON from %s: %w", urlStr, err))
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, source, urlStr string) (*http.Response, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, networkErr(source, fmt.Errorf("failed to parse URL %s: %w", urlStr, err))
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, networkErr(source, fmt.Errorf("invalid URL scheme %s: only http and https allowed", parsedURL.Scheme))
	}

	// Transport failures and throttling statuses are retried; any other
	// non-200 is terminal since repeating a 404 will not change it.
	var res *http.Response
	var terminalErr error
	err = util.RetryWithBackoff(ctx, 2, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			terminalErr = fmt.Errorf("failed to create request for URL %s: %w", urlStr, err)
			return nil
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch URL %s: %w", urlStr, err)
		}
		if resp.StatusCode == http.StatusOK {
			res = resp
			return nil
		}
		resp.Body.Close()
		statusErr := fmt.Errorf("failed to fetch URL %s: status code %d", urlStr, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return statusErr
		}
		terminalErr = statusErr
		return nil
	})
	if err != nil {
		return nil, networkErr(source, err)
	}
	if terminalErr != nil {
		return nil, networkErr(source, terminalErr)
	}
	return res, nil
}
