package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrListingExists is returned when attempting to create a listing whose URL
// is already stored for the same tracker.
var ErrListingExists = errors.New("listing already exists")

// TrackerKind selects which family of source adapters a tracker may use.
type TrackerKind string

const (
	KindDeal  TrackerKind = "deal"
	KindJob   TrackerKind = "job"
	KindHotel TrackerKind = "hotel"
)

// Tracker is a saved, recurring search monitored by the pipeline.
type Tracker struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Kind        TrackerKind `gorm:"size:20;index;default:deal" json:"kind"`
	SearchQuery string      `gorm:"size:300;not null" json:"search_query" validate:"required,max=300"`
	Category    string      `gorm:"size:50;default:other" json:"category"`
	City        string      `gorm:"size:100;default:Mumbai" json:"city"`
	MinPrice    *int        `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice    *int        `json:"max_price,omitempty" validate:"omitempty,gte=0"`

	// Platforms is a JSON array of source tags, e.g. ["olx","quikr"].
	// Use PlatformList/SetPlatforms instead of touching the raw column.
	Platforms string `gorm:"type:text;default:'[\"serpapi\"]'" json:"platforms"`

	WhatsAppNumber string     `gorm:"size:20" json:"whatsapp_number"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	LastChecked    *time.Time `json:"last_checked,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Job trackers only.
	Experience string `gorm:"size:50" json:"experience,omitempty"`
	JobType    string `gorm:"size:50" json:"job_type,omitempty"`

	// Hotel trackers only.
	Checkin  string `gorm:"size:20" json:"checkin,omitempty"`
	Checkout string `gorm:"size:20" json:"checkout,omitempty"`
	Guests   int    `gorm:"default:2" json:"guests,omitempty"`
	Rooms    int    `gorm:"default:1" json:"rooms,omitempty"`

	Listings []Listing `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// PlatformList decodes the Platforms column. A malformed or empty column
// yields the single default platform for the tracker's kind.
func (t *Tracker) PlatformList() []string {
	var tags []string
	if err := json.Unmarshal([]byte(t.Platforms), &tags); err != nil || len(tags) == 0 {
		return []string{defaultPlatform(t.Kind)}
	}
	return tags
}

// SetPlatforms encodes tags into the Platforms column. Validation against the
// adapter registry happens at the handler/store boundary, not here.
func (t *Tracker) SetPlatforms(tags []string) {
	if len(tags) == 0 {
		tags = []string{defaultPlatform(t.Kind)}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return
	}
	t.Platforms = string(raw)
}

func defaultPlatform(kind TrackerKind) string {
	switch kind {
	case KindJob:
		return "linkedin"
	case KindHotel:
		return "booking"
	default:
		return "serpapi"
	}
}

// Listing is a single discovered item attributed to one tracker.
// Immutable after creation except for the one-way IsNew transition.
type Listing struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TrackerID   uint      `gorm:"not null;uniqueIndex:idx_tracker_url" json:"tracker_id"`
	Title       string    `gorm:"size:500" json:"title"`
	Price       string    `gorm:"size:100" json:"price"`
	Location    string    `gorm:"size:200" json:"location"`
	URL         string    `gorm:"size:1000;uniqueIndex:idx_tracker_url" json:"url"`
	ImageURL    string    `gorm:"size:1000" json:"image_url"`
	Platform    string    `gorm:"size:50" json:"platform"`
	Description string    `gorm:"type:text" json:"description"`
	IsNew       bool      `gorm:"default:true" json:"is_new"`
	FoundAt     time.Time `json:"found_at"`

	// Job listings only.
	Company string `gorm:"size:300" json:"company,omitempty"`
	Salary  string `gorm:"size:200" json:"salary,omitempty"`

	// Hotel listings only.
	Rating string `gorm:"size:50" json:"rating,omitempty"`
}
