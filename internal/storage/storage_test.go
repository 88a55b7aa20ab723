package storage

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/vineetmn/spice-outreach/internal/models"
)

func TestInsertListingErr_DuplicateKey(t *testing.T) {
	err := insertListingErr("https://www.olx.in/item/1-bike", gorm.ErrDuplicatedKey)
	if !errors.Is(err, models.ErrListingExists) {
		t.Errorf("Expected ErrListingExists, got %v", err)
	}
}

func TestInsertListingErr_OtherFailure(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := insertListingErr("https://www.olx.in/item/1-bike", cause)
	if errors.Is(err, models.ErrListingExists) {
		t.Errorf("Plain failure must not map to ErrListingExists: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
}
