package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vineetmn/spice-outreach/internal/models"
)

type mapSettings map[string]string

func (m mapSettings) Get(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

type mockChecker struct{ calls int }

func (m *mockChecker) CheckAll(ctx context.Context) (int, error) {
	m.calls++
	return 3, nil
}

type mockSearcher struct {
	calls int
	query string
}

func (m *mockSearcher) Run(ctx context.Context, query, category string) (*models.SearchLog, error) {
	m.calls++
	m.query = query
	return &models.SearchLog{Query: query}, nil
}

type mockQueue struct {
	calls int
	limit int
}

func (m *mockQueue) EnqueueNewContacts(ctx context.Context, subject, body string, limit int) (int, error) {
	m.calls++
	m.limit = limit
	return 2, nil
}

func newTestScheduler(settings mapSettings) (*Scheduler, *mockChecker, *mockSearcher, *mockQueue, *mockQueue) {
	checker := &mockChecker{}
	searcher := &mockSearcher{}
	emailQueue := &mockQueue{}
	waQueue := &mockQueue{}
	queues := map[string]OutreachQueue{
		models.ChannelEmail:    emailQueue,
		models.ChannelWhatsApp: waQueue,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(settings, checker, searcher, queues, logger), checker, searcher, emailQueue, waQueue
}

func TestCheckJobEnabledByDefault(t *testing.T) {
	s, checker, _, _, _ := newTestScheduler(mapSettings{})
	s.runCheck(context.Background())
	if checker.calls != 1 {
		t.Error("tracker sweep should run when the flag is unset")
	}
}

func TestCheckJobRespectsDisableFlag(t *testing.T) {
	s, checker, _, _, _ := newTestScheduler(mapSettings{SettingAutoCheckEnabled: "false"})
	s.runCheck(context.Background())
	if checker.calls != 0 {
		t.Error("disabled sweep must not run")
	}
}

func TestSearchJobDisabledByDefault(t *testing.T) {
	s, _, searcher, _, _ := newTestScheduler(mapSettings{SettingAutoSearchQuery: "spice wholesalers kochi"})
	s.runSearch(context.Background())
	if searcher.calls != 0 {
		t.Error("lead search is opt-in and must not run by default")
	}
}

func TestSearchJobRunsWithQueryWhenEnabled(t *testing.T) {
	s, _, searcher, _, _ := newTestScheduler(mapSettings{
		SettingAutoSearchEnabled: "true",
		SettingAutoSearchQuery:   "spice wholesalers kochi",
	})
	s.runSearch(context.Background())
	if searcher.calls != 1 || searcher.query != "spice wholesalers kochi" {
		t.Errorf("searcher calls = %d, query = %q", searcher.calls, searcher.query)
	}
}

func TestSearchJobSkipsWithoutQuery(t *testing.T) {
	s, _, searcher, _, _ := newTestScheduler(mapSettings{SettingAutoSearchEnabled: "true"})
	s.runSearch(context.Background())
	if searcher.calls != 0 {
		t.Error("search without a configured query must be skipped")
	}
}

func TestSendJobRequiresFlagAndBody(t *testing.T) {
	s, _, _, emailQueue, _ := newTestScheduler(mapSettings{SettingAutoSendEnabled: "true"})
	s.runSend(context.Background())
	if emailQueue.calls != 0 {
		t.Error("send without an outreach body must be skipped")
	}

	s, _, _, emailQueue, _ = newTestScheduler(mapSettings{
		SettingAutoSendEnabled: "true",
		SettingOutreachBody:    "Hello, we supply spices.",
	})
	s.runSend(context.Background())
	if emailQueue.calls != 1 {
		t.Error("send with flag and body should run")
	}
	if emailQueue.limit != 50 {
		t.Errorf("default send limit = %d, want 50", emailQueue.limit)
	}
}

func TestSendJobHonorsChannelAndLimitSettings(t *testing.T) {
	s, _, _, emailQueue, waQueue := newTestScheduler(mapSettings{
		SettingAutoSendEnabled: "true",
		SettingAutoSendChannel: models.ChannelWhatsApp,
		SettingAutoSendLimit:   "10",
		SettingOutreachBody:    "Hello, we supply spices.",
	})
	s.runSend(context.Background())
	if emailQueue.calls != 0 {
		t.Error("email queue must not receive a whatsapp send")
	}
	if waQueue.calls != 1 || waQueue.limit != 10 {
		t.Errorf("whatsapp queue calls = %d, limit = %d", waQueue.calls, waQueue.limit)
	}
}

func TestSendJobSkipsUnknownChannel(t *testing.T) {
	s, _, _, emailQueue, waQueue := newTestScheduler(mapSettings{
		SettingAutoSendEnabled: "true",
		SettingAutoSendChannel: "pigeon",
		SettingOutreachBody:    "Hello, we supply spices.",
	})
	s.runSend(context.Background())
	if emailQueue.calls != 0 || waQueue.calls != 0 {
		t.Error("an unknown channel must not reach any queue")
	}
}
