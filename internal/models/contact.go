package models

import "time"

// Contact statuses form a simple funnel; only new→contacted is automated,
// the rest are set by hand.
const (
	ContactStatusNew       = "new"
	ContactStatusContacted = "contacted"
	ContactStatusResponded = "responded"
	ContactStatusConverted = "converted"
	ContactStatusInactive  = "inactive"
)

// Contact is a B2B lead in the CRM.
type Contact struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyName   string    `gorm:"size:200;not null" json:"company_name" validate:"required,max=200"`
	ContactPerson string    `gorm:"size:200" json:"contact_person"`
	Email         string    `gorm:"size:200" json:"email" validate:"omitempty,email"`
	Phone         string    `gorm:"size:50" json:"phone"`
	WhatsApp      string    `gorm:"size:50" json:"whatsapp"`
	Website       string    `gorm:"size:300" json:"website" validate:"omitempty,url"`
	City          string    `gorm:"size:100" json:"city"`
	State         string    `gorm:"size:100" json:"state"`
	Country       string    `gorm:"size:100;default:India" json:"country"`
	Category      string    `gorm:"size:100;default:Other" json:"category"`
	Notes         string    `gorm:"type:text" json:"notes"`
	Source        string    `gorm:"size:100;default:manual" json:"source"`
	Status        string    `gorm:"size:50;default:new" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Messages []MessageLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Message channels and statuses.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"

	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
)

// MessageLog records one outbound message attempt. Sent rows drive the
// per-hour/per-day send ceilings.
type MessageLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ContactID    uint       `gorm:"not null;index" json:"contact_id"`
	Channel      string     `gorm:"size:20;not null" json:"channel"`
	Status       string     `gorm:"size:20;default:pending;index" json:"status"`
	Subject      string     `gorm:"size:300" json:"subject"`
	BodyPreview  string     `gorm:"type:text" json:"body_preview"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AppSetting is one key/value row of the settings store. Confidential values
// are stored encrypted; the settings service is the only reader/writer.
type AppSetting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"-"`
	IsEncrypted bool      `gorm:"default:false" json:"is_encrypted"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SearchLog records one automated lead-search run.
type SearchLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Query         string    `gorm:"size:500;not null" json:"query"`
	Source        string    `gorm:"size:50;default:google_api" json:"source"`
	ResultsCount  int       `gorm:"default:0" json:"results_count"`
	ContactsSaved int       `gorm:"default:0" json:"contacts_saved"`
	CreatedAt     time.Time `json:"created_at"`
}
