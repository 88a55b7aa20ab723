package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Open connects to Postgres and migrates the schema.
func Open(dial gorm.Dialector, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Tracker{},
		&models.Listing{},
		&models.Contact{},
		&models.MessageLog{},
		&models.AppSetting{},
		&models.SearchLog{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// TrackerStore persists trackers and their listings.
type TrackerStore struct {
	db *gorm.DB
}

func NewTrackerStore(db *gorm.DB) *TrackerStore {
	return &TrackerStore{db: db}
}

func (s *TrackerStore) Create(ctx context.Context, tracker *models.Tracker) error {
	tracker.CreatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Create(tracker).Error
}

func (s *TrackerStore) Get(ctx context.Context, id uint) (*models.Tracker, error) {
	var tracker models.Tracker
	err := s.db.WithContext(ctx).First(&tracker, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tracker, nil
}

func (s *TrackerStore) List(ctx context.Context, kind models.TrackerKind) ([]models.Tracker, error) {
	var trackers []models.Tracker
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	return trackers, q.Find(&trackers).Error
}

func (s *TrackerStore) ActiveTrackers(ctx context.Context) ([]models.Tracker, error) {
	var trackers []models.Tracker
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&trackers).Error
	return trackers, err
}

func (s *TrackerStore) Update(ctx context.Context, tracker *models.Tracker) error {
	res := s.db.WithContext(ctx).Model(tracker).Select(
		"SearchQuery", "Category", "City", "MinPrice", "MaxPrice", "Platforms",
		"WhatsAppNumber", "IsActive", "Experience", "JobType",
		"Checkin", "Checkout", "Guests", "Rooms",
	).Updates(tracker)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a tracker and all of its listings.
func (s *TrackerStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tracker_id = ?", id).Delete(&models.Listing{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tracker{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *TrackerStore) ListingURLs(ctx context.Context, trackerID uint) ([]string, error) {
	var urls []string
	err := s.db.WithContext(ctx).Model(&models.Listing{}).
		Where("tracker_id = ?", trackerID).
		Pluck("url", &urls).Error
	return urls, err
}

// CommitCheck records the outcome of one tracker sweep atomically: the
// accepted listings go in and last_checked is stamped, or neither happens.
// It runs with zero listings too, so an empty sweep still moves the clock.
func (s *TrackerStore) CommitCheck(ctx context.Context, tracker *models.Tracker, listings []models.Listing) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range listings {
			if err := tx.Create(&listings[i]).Error; err != nil {
				return insertListingErr(listings[i].URL, err)
			}
		}
		return tx.Model(&models.Tracker{}).
			Where("id = ?", tracker.ID).
			Update("last_checked", now).Error
	})
	if err != nil {
		return err
	}
	tracker.LastChecked = &now
	return nil
}

// insertListingErr maps a duplicate-key violation on (tracker_id, url) to
// models.ErrListingExists so callers can tell a re-seen listing from a real
// database failure. Requires gorm.Config{TranslateError: true}.
func insertListingErr(url string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("inserting listing %q: %w", url, models.ErrListingExists)
	}
	return fmt.Errorf("inserting listing %q: %w", url, err)
}

func (s *TrackerStore) Listings(ctx context.Context, trackerID uint) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.WithContext(ctx).
		Where("tracker_id = ?", trackerID).
		Order("found_at DESC").
		Find(&listings).Error
	return listings, err
}

// MarkViewed clears the new flag on every listing of a tracker. The flag
// only ever moves from true to false; re-marking is a no-op.
func (s *TrackerStore) MarkViewed(ctx context.Context, trackerID uint) error {
	return s.db.WithContext(ctx).Model(&models.Listing{}).
		Where("tracker_id = ? AND is_new = ?", trackerID, true).
		Update("is_new", false).Error
}
