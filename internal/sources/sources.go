// Package sources holds the per-platform adapters that turn an external
// site or API into a bounded list of loosely-typed candidate items.
package sources

import (
	"context"
	"fmt"
	"sort"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// Query carries a tracker's search parameters into an adapter.
type Query struct {
	Text     string
	City     string
	Category string

	// Job searches.
	JobType string

	// Hotel searches.
	Checkin  string
	Checkout string
	Guests   int
	Rooms    int
}

// RawItem is one scraped record before normalization. Keys are the
// source-specific field names; absent fields are simply missing.
// Well-known keys: title (or name), price, location, url, image_url,
// description, company, salary, experience, rating, posted_date,
// platform_override.
type RawItem map[string]string

// Adapter fetches and parses one platform. Implementations must tolerate
// partial data, cap their result count, and never panic on unexpected markup.
type Adapter interface {
	Tag() string
	Kind() models.TrackerKind
	Fetch(ctx context.Context, q Query) ([]RawItem, error)
}

// FetchErrorKind distinguishes transport failures from page-structure
// mismatches. Callers treat both as "no results" today, but a structural
// break can at least be told apart in logs.
type FetchErrorKind int

const (
	FetchErrNetwork FetchErrorKind = iota + 1
	FetchErrParseShape
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchErrNetwork:
		return "network"
	case FetchErrParseShape:
		return "parse_shape"
	}
	return "unknown"
}

// FetchError wraps an adapter failure with its kind and source tag.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func networkErr(source string, err error) *FetchError {
	return &FetchError{Kind: FetchErrNetwork, Source: source, Err: err}
}

func parseShapeErr(source string, err error) *FetchError {
	return &FetchError{Kind: FetchErrParseShape, Source: source, Err: err}
}

// Registry maps source tags to adapters and validates tracker platform lists
// at write time.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Tag()] = a
	}
	return r
}

func (r *Registry) Get(tag string) (Adapter, bool) {
	a, ok := r.adapters[tag]
	return a, ok
}

// TagsForKind lists the registered source tags usable by trackers of kind.
func (r *Registry) TagsForKind(kind models.TrackerKind) []string {
	var tags []string
	for tag, a := range r.adapters {
		if a.Kind() == kind {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// ValidateTags rejects unknown tags and tags belonging to another tracker
// kind. An empty list is rejected too; trackers always carry at least the
// kind's default platform.
func (r *Registry) ValidateTags(kind models.TrackerKind, tags []string) error {
	if len(tags) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	for _, tag := range tags {
		a, ok := r.adapters[tag]
		if !ok {
			return fmt.Errorf("unknown platform %q", tag)
		}
		if a.Kind() != kind {
			return fmt.Errorf("platform %q is not usable by %s trackers", tag, kind)
		}
	}
	return nil
}
