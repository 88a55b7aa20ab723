package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL         string
	Port                string
	FetchTimeout        time.Duration
	AdapterItemCap      int
	EmailRatePerHour    int
	EmailRatePerDay     int
	WhatsAppRatePerHour int
	WhatsAppRatePerDay  int
	FernetKey           string
	GeminiAPIKey        string
	GeminiModelID       string
	ChromeProfileDir    string
}

func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	fetchTimeoutStr := os.Getenv("FETCH_TIMEOUT")
	if fetchTimeoutStr == "" {
		fetchTimeoutStr = "20s"
	}
	fetchTimeout, err := time.ParseDuration(fetchTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", fetchTimeoutStr, err)
	}

	adapterItemCap, err := intEnv("ADAPTER_ITEM_CAP", 30)
	if err != nil {
		return nil, err
	}
	emailPerHour, err := intEnv("EMAIL_RATE_PER_HOUR", 20)
	if err != nil {
		return nil, err
	}
	emailPerDay, err := intEnv("EMAIL_RATE_PER_DAY", 200)
	if err != nil {
		return nil, err
	}
	waPerHour, err := intEnv("WHATSAPP_RATE_PER_HOUR", 15)
	if err != nil {
		return nil, err
	}
	waPerDay, err := intEnv("WHATSAPP_RATE_PER_DAY", 100)
	if err != nil {
		return nil, err
	}

	fernetKey := os.Getenv("FERNET_KEY")
	if fernetKey == "" {
		slog.Warn("FERNET_KEY not set, confidential settings will be stored in plain text")
	}

	geminiModelID := os.Getenv("GEMINI_MODEL_ID")
	if geminiModelID == "" {
		geminiModelID = "gemini-2.5-flash"
	}

	return &Config{
		DatabaseURL:         databaseURL,
		Port:                port,
		FetchTimeout:        fetchTimeout,
		AdapterItemCap:      adapterItemCap,
		EmailRatePerHour:    emailPerHour,
		EmailRatePerDay:     emailPerDay,
		WhatsAppRatePerHour: waPerHour,
		WhatsAppRatePerDay:  waPerDay,
		FernetKey:           fernetKey,
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModelID:       geminiModelID,
		ChromeProfileDir:    os.Getenv("CHROME_PROFILE_DIR"),
	}, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return parsed, nil
}
