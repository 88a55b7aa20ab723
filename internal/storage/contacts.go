package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// ErrContactExists is returned when creating a contact whose company name
// or email already exists.
var ErrContactExists = errors.New("contact already exists")

// ContactStore persists CRM contacts, their message history and the lead
// search audit log.
type ContactStore struct {
	db *gorm.DB
}

func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db}
}

// Create inserts a contact unless one with the same company name or email
// already exists. Matching is case-insensitive on company name.
func (s *ContactStore) Create(ctx context.Context, contact *models.Contact) error {
	q := s.db.WithContext(ctx).Model(&models.Contact{}).
		Where("LOWER(company_name) = ?", strings.ToLower(contact.CompanyName))
	if contact.Email != "" {
		q = q.Or("email = ?", contact.Email)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrContactExists
	}
	return s.db.WithContext(ctx).Create(contact).Error
}

func (s *ContactStore) Get(ctx context.Context, id uint) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.WithContext(ctx).First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// List filters contacts by optional status and category.
func (s *ContactStore) List(ctx context.Context, status, category string) ([]models.Contact, error) {
	var contacts []models.Contact
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return contacts, q.Find(&contacts).Error
}

func (s *ContactStore) Update(ctx context.Context, contact *models.Contact) error {
	res := s.db.WithContext(ctx).Model(contact).Select(
		"CompanyName", "ContactPerson", "Email", "Phone", "WhatsApp", "Website",
		"City", "State", "Country", "Category", "Notes", "Source", "Status",
	).Updates(contact)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ContactStore) SetStatus(ctx context.Context, id uint, status string) error {
	res := s.db.WithContext(ctx).Model(&models.Contact{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ContactStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", id).Delete(&models.MessageLog{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Contact{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// NotYetMessaged returns contacts in the given status with no sent message
// on the channel, oldest first. The send queue drains from this set.
func (s *ContactStore) NotYetMessaged(ctx context.Context, status, channel string, limit int) ([]models.Contact, error) {
	var contacts []models.Contact
	sub := s.db.Model(&models.MessageLog{}).
		Select("contact_id").
		Where("channel = ? AND status = ?", channel, models.MessageStatusSent)
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Where("id NOT IN (?)", sub).
		Order("created_at ASC").
		Limit(limit).
		Find(&contacts).Error
	return contacts, err
}

func (s *ContactStore) LogMessage(ctx context.Context, log *models.MessageLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *ContactStore) UpdateMessage(ctx context.Context, log *models.MessageLog) error {
	return s.db.WithContext(ctx).Model(log).Select(
		"Status", "ErrorMessage", "SentAt",
	).Updates(log).Error
}

// SentSince counts sent messages on a channel after the cutoff. The send
// queue uses it to enforce hourly and daily ceilings across restarts.
func (s *ContactStore) SentSince(ctx context.Context, channel string, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MessageLog{}).
		Where("channel = ? AND status = ? AND sent_at >= ?", channel, models.MessageStatusSent, cutoff).
		Count(&count).Error
	return count, err
}

func (s *ContactStore) Messages(ctx context.Context, contactID uint) ([]models.MessageLog, error) {
	var logs []models.MessageLog
	err := s.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

func (s *ContactStore) LogSearch(ctx context.Context, log *models.SearchLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s *ContactStore) RecentSearches(ctx context.Context, limit int) ([]models.SearchLog, error) {
	var logs []models.SearchLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
