package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vineetmn/spice-outreach/internal/leads"
	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/queue"
	"github.com/vineetmn/spice-outreach/internal/sources"
	"github.com/vineetmn/spice-outreach/internal/storage"
)

type fakeTrackerStore struct {
	trackers map[uint]*models.Tracker
	listings map[uint][]models.Listing
	viewed   []uint
	nextID   uint
}

func newFakeTrackerStore() *fakeTrackerStore {
	return &fakeTrackerStore{
		trackers: map[uint]*models.Tracker{},
		listings: map[uint][]models.Listing{},
	}
}

func (f *fakeTrackerStore) Create(ctx context.Context, tracker *models.Tracker) error {
	f.nextID++
	tracker.ID = f.nextID
	f.trackers[tracker.ID] = tracker
	return nil
}

func (f *fakeTrackerStore) Get(ctx context.Context, id uint) (*models.Tracker, error) {
	tracker, ok := f.trackers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *tracker
	return &copied, nil
}

func (f *fakeTrackerStore) List(ctx context.Context, kind models.TrackerKind) ([]models.Tracker, error) {
	var out []models.Tracker
	for _, t := range f.trackers {
		if kind == "" || t.Kind == kind {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTrackerStore) Update(ctx context.Context, tracker *models.Tracker) error {
	if _, ok := f.trackers[tracker.ID]; !ok {
		return storage.ErrNotFound
	}
	f.trackers[tracker.ID] = tracker
	return nil
}

func (f *fakeTrackerStore) Delete(ctx context.Context, id uint) error {
	if _, ok := f.trackers[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.trackers, id)
	return nil
}

func (f *fakeTrackerStore) Listings(ctx context.Context, trackerID uint) ([]models.Listing, error) {
	return f.listings[trackerID], nil
}

func (f *fakeTrackerStore) MarkViewed(ctx context.Context, trackerID uint) error {
	f.viewed = append(f.viewed, trackerID)
	return nil
}

type fakeChecker struct {
	checked []uint
	count   int
}

func (f *fakeChecker) CheckTracker(ctx context.Context, tracker *models.Tracker) (int, error) {
	f.checked = append(f.checked, tracker.ID)
	return f.count, nil
}

func (f *fakeChecker) CheckAll(ctx context.Context) (int, error) {
	return f.count, nil
}

type stubAdapter struct {
	tag  string
	kind models.TrackerKind
}

func (s *stubAdapter) Tag() string              { return s.tag }
func (s *stubAdapter) Kind() models.TrackerKind { return s.kind }
func (s *stubAdapter) Fetch(ctx context.Context, q sources.Query) ([]sources.RawItem, error) {
	return nil, nil
}

func setupTrackerHandler() (*echo.Echo, *fakeTrackerStore, *fakeChecker) {
	store := newFakeTrackerStore()
	checker := &fakeChecker{count: 2}
	registry := sources.NewRegistry(
		&stubAdapter{tag: "olx", kind: models.KindDeal},
		&stubAdapter{tag: "linkedin", kind: models.KindJob},
	)
	h := NewTrackerHandler(store, registry, checker)

	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))
	return e, store, checker
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateTracker(t *testing.T) {
	e, store, _ := setupTrackerHandler()

	rec := doJSON(e, http.MethodPost, "/api/trackers",
		`{"search_query":"maruti swift","city":"Kochi","platforms":["olx"],"max_price":300000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var tracker models.Tracker
	if err := json.Unmarshal(rec.Body.Bytes(), &tracker); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tracker.Kind != models.KindDeal {
		t.Errorf("kind = %q, want deal default", tracker.Kind)
	}
	if !tracker.IsActive {
		t.Error("new trackers should start active")
	}
	if len(store.trackers) != 1 {
		t.Errorf("stored %d trackers", len(store.trackers))
	}
}

func TestCreateTrackerRejectsBadPlatform(t *testing.T) {
	e, _, _ := setupTrackerHandler()

	rec := doJSON(e, http.MethodPost, "/api/trackers",
		`{"search_query":"swift","platforms":["linkedin"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("job platform on a deal tracker should 400, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/trackers",
		`{"search_query":"swift","platforms":["nosuch"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown platform should 400, got %d", rec.Code)
	}
}

func TestCreateTrackerRejectsInvertedPrices(t *testing.T) {
	e, _, _ := setupTrackerHandler()

	rec := doJSON(e, http.MethodPost, "/api/trackers",
		`{"search_query":"swift","min_price":500000,"max_price":100000}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted price range should 400, got %d", rec.Code)
	}
}

func TestCreateTrackerRequiresQuery(t *testing.T) {
	e, _, _ := setupTrackerHandler()

	rec := doJSON(e, http.MethodPost, "/api/trackers", `{"city":"Kochi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing search_query should 400, got %d", rec.Code)
	}
}

func TestGetTrackerNotFound(t *testing.T) {
	e, _, _ := setupTrackerHandler()

	rec := doJSON(e, http.MethodGet, "/api/trackers/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCheckTrackerEndpoint(t *testing.T) {
	e, store, checker := setupTrackerHandler()
	store.Create(context.Background(), &models.Tracker{Kind: models.KindDeal, SearchQuery: "swift"})

	rec := doJSON(e, http.MethodPost, "/api/trackers/1/check", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(checker.checked) != 1 || checker.checked[0] != 1 {
		t.Errorf("checked = %v", checker.checked)
	}
	if !strings.Contains(rec.Body.String(), `"new_listings":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestTrackerResultsMarksViewed(t *testing.T) {
	e, store, _ := setupTrackerHandler()
	store.Create(context.Background(), &models.Tracker{Kind: models.KindDeal, SearchQuery: "swift"})
	store.listings[1] = []models.Listing{{TrackerID: 1, Title: "Swift 2015", IsNew: true}}

	rec := doJSON(e, http.MethodGet, "/api/trackers/1/results", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(store.viewed) != 1 || store.viewed[0] != 1 {
		t.Errorf("fetching results should clear the new flag, viewed = %v", store.viewed)
	}
}

func TestListPlatforms(t *testing.T) {
	e, _, _ := setupTrackerHandler()

	rec := doJSON(e, http.MethodGet, "/api/platforms", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got["deal"]) != 1 || got["deal"][0] != "olx" {
		t.Errorf("deal platforms = %v", got["deal"])
	}
}

type fakeContactStore struct {
	contacts map[uint]*models.Contact
}

func (f *fakeContactStore) Create(ctx context.Context, contact *models.Contact) error { return nil }
func (f *fakeContactStore) Get(ctx context.Context, id uint) (*models.Contact, error) {
	contact, ok := f.contacts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *contact
	return &copied, nil
}
func (f *fakeContactStore) List(ctx context.Context, status, category string) ([]models.Contact, error) {
	return nil, nil
}
func (f *fakeContactStore) Update(ctx context.Context, contact *models.Contact) error { return nil }
func (f *fakeContactStore) SetStatus(ctx context.Context, id uint, status string) error {
	return nil
}
func (f *fakeContactStore) Delete(ctx context.Context, id uint) error { return nil }
func (f *fakeContactStore) Messages(ctx context.Context, contactID uint) ([]models.MessageLog, error) {
	return nil, nil
}
func (f *fakeContactStore) RecentSearches(ctx context.Context, limit int) ([]models.SearchLog, error) {
	return nil, nil
}

type fakeQueue struct {
	enqueued int
	batches  int
}

func (f *fakeQueue) Enqueue(msg queue.Message) error { f.enqueued++; return nil }
func (f *fakeQueue) EnqueueNewContacts(ctx context.Context, subject, body string, limit int) (int, error) {
	f.batches++
	return limit, nil
}

type fakeDrafter struct{}

func (f *fakeDrafter) DraftOutreach(ctx context.Context, contact *models.Contact, product string) string {
	return "draft for " + contact.CompanyName
}

type fakeSearcher struct{}

func (f *fakeSearcher) Run(ctx context.Context, query, category string) (*models.SearchLog, error) {
	return &models.SearchLog{Query: query}, nil
}

type fakeScout struct{}

func (f *fakeScout) FindLeads(ctx context.Context, query string, maxVideos int64) ([]leads.CommentLead, error) {
	return nil, nil
}

type fakeFacebookScout struct {
	pageScans, groupScans int
}

func (f *fakeFacebookScout) ScanPage(ctx context.Context, keyword string) (*leads.FacebookScanReport, error) {
	f.pageScans++
	return &leads.FacebookScanReport{Posts: 2, Enquiries: 1}, nil
}

func (f *fakeFacebookScout) ScanGroups(ctx context.Context, keyword string) (*leads.FacebookScanReport, error) {
	f.groupScans++
	return &leads.FacebookScanReport{}, nil
}

func setupContactHandler() (*echo.Echo, *fakeQueue, *fakeQueue, *fakeFacebookScout) {
	store := &fakeContactStore{contacts: map[uint]*models.Contact{
		1: {ID: 1, CompanyName: "Kochi Spice Traders", Email: "hello@kochispice.in"},
	}}
	emailQueue := &fakeQueue{}
	waQueue := &fakeQueue{}
	fbScout := &fakeFacebookScout{}
	h := NewContactHandler(store, &fakeDrafter{}, map[string]OutreachQueue{
		models.ChannelEmail:    emailQueue,
		models.ChannelWhatsApp: waQueue,
	}, &fakeSearcher{}, &fakeScout{}, fbScout)

	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))
	return e, emailQueue, waQueue, fbScout
}

func TestSendOutreachDefaultsToEmailChannel(t *testing.T) {
	e, emailQueue, waQueue, _ := setupContactHandler()

	rec := doJSON(e, http.MethodPost, "/api/outreach/send",
		`{"contact_id":1,"subject":"hi","body":"namaste"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if emailQueue.enqueued != 1 || waQueue.enqueued != 0 {
		t.Errorf("email = %d, whatsapp = %d enqueues, want email only",
			emailQueue.enqueued, waQueue.enqueued)
	}
}

func TestSendOutreachRoutesWhatsAppChannel(t *testing.T) {
	e, emailQueue, waQueue, _ := setupContactHandler()

	rec := doJSON(e, http.MethodPost, "/api/outreach/send",
		`{"channel":"whatsapp","body":"namaste","limit":5}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if waQueue.batches != 1 || emailQueue.batches != 0 {
		t.Errorf("whatsapp batches = %d, email batches = %d", waQueue.batches, emailQueue.batches)
	}
}

func TestSendOutreachRejectsUnknownChannel(t *testing.T) {
	e, _, _, _ := setupContactHandler()

	rec := doJSON(e, http.MethodPost, "/api/outreach/send",
		`{"channel":"pigeon","body":"namaste"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown channel should 400, got %d", rec.Code)
	}
}

func TestScanFacebookTargets(t *testing.T) {
	e, _, _, fbScout := setupContactHandler()

	rec := doJSON(e, http.MethodPost, "/api/leads/facebook", `{"keyword":"cardamom"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if fbScout.pageScans != 1 {
		t.Errorf("page scans = %d, want the page target by default", fbScout.pageScans)
	}

	rec = doJSON(e, http.MethodPost, "/api/leads/facebook", `{"target":"groups"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if fbScout.groupScans != 1 {
		t.Errorf("group scans = %d", fbScout.groupScans)
	}

	rec = doJSON(e, http.MethodPost, "/api/leads/facebook", `{"target":"marketplace"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown target should 400, got %d", rec.Code)
	}
}

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) Get(key, def string) string {
	if v, ok := f.values[key]; ok {
		return v
	}
	return def
}

func (f *fakeSettings) Set(key, value string, confidential bool) error {
	f.values[key] = value
	return nil
}

func TestSettingsRedactsConfidentialValues(t *testing.T) {
	settings := &fakeSettings{values: map[string]string{
		"twilio_auth_token": "secret-token",
		"whatsapp_mode":     "desktop",
	}}
	e := echo.New()
	NewSettingsHandler(settings).RegisterRoutes(e.Group("/api"))

	rec := doJSON(e, http.MethodGet, "/api/settings/twilio_auth_token", "")
	if strings.Contains(rec.Body.String(), "secret-token") {
		t.Errorf("confidential value leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"configured":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/settings/whatsapp_mode", "")
	if !strings.Contains(rec.Body.String(), "desktop") {
		t.Errorf("plain setting should be returned, body = %s", rec.Body.String())
	}
}
