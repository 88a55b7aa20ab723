package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/sources"
	"github.com/vineetmn/spice-outreach/internal/storage"
)

// Settings keys for Google programmable search.
const (
	SettingGoogleAPIKey = "google_api_key"
	SettingGoogleCSEID  = "google_cse_id"
)

// SettingGetter supplies API keys at call time.
type SettingGetter interface {
	Get(key, def string) string
}

// ContactSaver is the slice of the contact store the searcher writes to.
type ContactSaver interface {
	Create(ctx context.Context, contact *models.Contact) error
	LogSearch(ctx context.Context, log *models.SearchLog) error
}

// Searcher discovers B2B leads through Google Custom Search: each hit's
// site is fetched and scraped for contact details, and anything with an
// email or phone becomes a CRM contact.
type Searcher struct {
	settings SettingGetter
	contacts ContactSaver
	fetcher  *sources.Fetcher
	logger   *slog.Logger
}

func NewSearcher(settings SettingGetter, contacts ContactSaver, fetcher *sources.Fetcher, logger *slog.Logger) *Searcher {
	return &Searcher{settings: settings, contacts: contacts, fetcher: fetcher, logger: logger}
}

// Run executes one lead search and returns its audit record. Individual
// site failures are logged and skipped; the run fails only when the search
// API itself does.
func (s *Searcher) Run(ctx context.Context, query, category string) (*models.SearchLog, error) {
	apiKey := s.settings.Get(SettingGoogleAPIKey, "")
	cseID := s.settings.Get(SettingGoogleCSEID, "")
	if apiKey == "" || cseID == "" {
		return nil, fmt.Errorf("google search settings are not configured")
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("building search client: %w", err)
	}

	resp, err := svc.Cse.List().Context(ctx).Q(query).Cx(cseID).Num(10).Gl("in").Do()
	if err != nil {
		return nil, fmt.Errorf("custom search %q: %w", query, err)
	}

	saved := 0
	for _, item := range resp.Items {
		if err := ctx.Err(); err != nil {
			break
		}
		contact, ok := s.contactFromResult(ctx, item.Title, item.Link, category)
		if !ok {
			continue
		}
		err := s.contacts.Create(ctx, contact)
		if errors.Is(err, storage.ErrContactExists) {
			continue
		}
		if err != nil {
			s.logger.Error("saving discovered contact", "company", contact.CompanyName, "error", err)
			continue
		}
		saved++
	}

	log := &models.SearchLog{
		Query:         query,
		Source:        "google_api",
		ResultsCount:  len(resp.Items),
		ContactsSaved: saved,
	}
	if err := s.contacts.LogSearch(ctx, log); err != nil {
		s.logger.Error("recording search log", "query", query, "error", err)
	}
	s.logger.Info("lead search finished", "query", query, "results", len(resp.Items), "saved", saved)
	return log, nil
}

// contactFromResult fetches one search hit and scrapes it. Pages without a
// single email or phone are dropped; a contact row with no way to reach
// the company is dead weight.
func (s *Searcher) contactFromResult(ctx context.Context, title, link, category string) (*models.Contact, bool) {
	doc, err := s.fetcher.FetchDocument(ctx, "leadsearch", link)
	if err != nil {
		s.logger.Warn("lead site unreachable", "url", link, "error", err)
		return nil, false
	}

	extracted := ExtractContacts(doc)
	if len(extracted.Emails) == 0 && len(extracted.Phones) == 0 {
		return nil, false
	}

	company := CompanyNameFromTitle(title)
	if company == "" {
		company = link
	}
	contact := &models.Contact{
		CompanyName: company,
		Website:     link,
		Category:    category,
		Source:      "google_api",
		Status:      models.ContactStatusNew,
	}
	if len(extracted.Emails) > 0 {
		contact.Email = extracted.Emails[0]
	}
	if len(extracted.Phones) > 0 {
		contact.Phone = extracted.Phones[0]
		contact.WhatsApp = extracted.Phones[0]
	}
	return contact, true
}
