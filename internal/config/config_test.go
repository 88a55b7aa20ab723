package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/outreach_test")
	t.Setenv("PORT", "9090")
	t.Setenv("FETCH_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost/outreach_test" {
		t.Errorf("Expected postgres://localhost/outreach_test, got %s", cfg.DatabaseURL)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected 9090, got %s", cfg.Port)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("Expected 15s, got %s", cfg.FetchTimeout)
	}
	if cfg.AdapterItemCap != 30 {
		t.Errorf("Expected default AdapterItemCap 30, got %d", cfg.AdapterItemCap)
	}
	if cfg.EmailRatePerHour != 20 {
		t.Errorf("Expected default EmailRatePerHour 20, got %d", cfg.EmailRatePerHour)
	}
	if cfg.EmailRatePerDay != 200 {
		t.Errorf("Expected default EmailRatePerDay 200, got %d", cfg.EmailRatePerDay)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return an error when DATABASE_URL is not set")
	}
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/outreach_test")
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error for invalid FETCH_TIMEOUT")
	}
}

func TestLoad_CustomRates(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/outreach_test")
	t.Setenv("EMAIL_RATE_PER_HOUR", "5")
	t.Setenv("EMAIL_RATE_PER_DAY", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.EmailRatePerHour != 5 {
		t.Errorf("Expected EmailRatePerHour 5, got %d", cfg.EmailRatePerHour)
	}
	if cfg.EmailRatePerDay != 50 {
		t.Errorf("Expected EmailRatePerDay 50, got %d", cfg.EmailRatePerDay)
	}
}

func TestLoad_InvalidItemCap(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/outreach_test")
	t.Setenv("ADAPTER_ITEM_CAP", "lots")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error for invalid ADAPTER_ITEM_CAP")
	}
}
