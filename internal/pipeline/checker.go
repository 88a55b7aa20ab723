package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/sources"
)

// Store is the persistence surface the checker needs.
type Store interface {
	ActiveTrackers(ctx context.Context) ([]models.Tracker, error)
	ListingURLs(ctx context.Context, trackerID uint) ([]string, error)
	// CommitCheck atomically inserts the accepted listings and stamps the
	// tracker's last_checked. It must run even with zero listings so the
	// tracker still records the sweep.
	CommitCheck(ctx context.Context, tracker *models.Tracker, listings []models.Listing) error
}

// Notifier announces freshly committed listings. Implementations must not
// return delivery failures to the checker; notification is best-effort.
type Notifier interface {
	NotifyNewListings(ctx context.Context, tracker *models.Tracker, listings []models.Listing)
}

// Checker runs the fetch, normalize, filter, commit, notify cycle for
// trackers. One Checker instance is shared by the HTTP handlers and the
// scheduler.
type Checker struct {
	store        Store
	notifier     Notifier
	registry     *sources.Registry
	logger       *slog.Logger
	fetchTimeout time.Duration
}

func NewChecker(store Store, notifier Notifier, registry *sources.Registry, logger *slog.Logger, fetchTimeout time.Duration) *Checker {
	if fetchTimeout <= 0 {
		fetchTimeout = 20 * time.Second
	}
	return &Checker{
		store:        store,
		notifier:     notifier,
		registry:     registry,
		logger:       logger,
		fetchTimeout: fetchTimeout,
	}
}

// CheckTracker sweeps one tracker across its configured platforms and
// returns how many new listings were committed. Source failures are logged
// and skipped; the commit happens regardless so last_checked moves forward.
func (c *Checker) CheckTracker(ctx context.Context, tracker *models.Tracker) (int, error) {
	urls, err := c.store.ListingURLs(ctx, tracker.ID)
	if err != nil {
		return 0, fmt.Errorf("loading existing listing urls: %w", err)
	}
	existing := make(map[string]bool, len(urls))
	for _, u := range urls {
		existing[u] = true
	}

	query := queryFromTracker(tracker)

	var accepted []models.Listing
	for _, tag := range tracker.PlatformList() {
		adapter, ok := c.registry.Get(tag)
		if !ok || adapter.Kind() != tracker.Kind {
			c.logger.Warn("skipping unknown or mismatched platform",
				"tracker_id", tracker.ID, "platform", tag)
			continue
		}

		items, err := c.fetchSource(ctx, adapter, query)
		if err != nil {
			c.logger.Error("source fetch failed",
				"tracker_id", tracker.ID, "platform", tag, "error", err)
			continue
		}

		for _, item := range items {
			listing, ok := Normalize(item, tracker, tag)
			if !ok {
				continue
			}
			if !Admit(&listing, tracker, existing) {
				continue
			}
			existing[listing.URL] = true
			accepted = append(accepted, listing)
		}
	}

	if err := c.store.CommitCheck(ctx, tracker, accepted); err != nil {
		return 0, fmt.Errorf("committing check for tracker %d: %w", tracker.ID, err)
	}

	if len(accepted) > 0 && c.notifier != nil {
		c.notifier.NotifyNewListings(ctx, tracker, accepted)
	}

	c.logger.Info("tracker checked",
		"tracker_id", tracker.ID, "kind", tracker.Kind, "new_listings", len(accepted))
	return len(accepted), nil
}

// CheckAll sweeps every active tracker sequentially. A failing tracker is
// logged and the sweep continues; the returned count covers successful
// trackers only.
func (c *Checker) CheckAll(ctx context.Context) (int, error) {
	trackers, err := c.store.ActiveTrackers(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading active trackers: %w", err)
	}

	total := 0
	for i := range trackers {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := c.CheckTracker(ctx, &trackers[i])
		if err != nil {
			c.logger.Error("tracker check failed",
				"tracker_id", trackers[i].ID, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

func (c *Checker) fetchSource(ctx context.Context, adapter sources.Adapter, query sources.Query) ([]sources.RawItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	return adapter.Fetch(fetchCtx, query)
}

func queryFromTracker(t *models.Tracker) sources.Query {
	return sources.Query{
		Text:     t.SearchQuery,
		City:     t.City,
		Category: t.Category,
		JobType:  t.JobType,
		Checkin:  t.Checkin,
		Checkout: t.Checkout,
		Guests:   t.Guests,
		Rooms:    t.Rooms,
	}
}
