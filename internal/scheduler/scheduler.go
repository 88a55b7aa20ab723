package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// Settings keys controlling the background jobs. Enabled flags are read at
// fire time, so toggling a job in the dashboard takes effect without a
// restart.
const (
	SettingAutoCheckEnabled   = "auto_check_enabled"
	SettingAutoSearchEnabled  = "auto_search_enabled"
	SettingAutoSearchQuery    = "auto_search_query"
	SettingAutoSearchCategory = "auto_search_category"
	SettingAutoSendEnabled    = "auto_send_enabled"
	SettingAutoSendChannel    = "auto_send_channel"
	SettingAutoSendLimit      = "auto_send_limit"
	SettingOutreachSubject    = "outreach_subject"
	SettingOutreachBody       = "outreach_body"
)

// Cron expressions for the three jobs.
const (
	checkSpec  = "0 */6 * * *" // tracker sweep every six hours
	searchSpec = "0 9 * * *"   // lead search at 09:00
	sendSpec   = "0 10 * * *"  // outreach drain at 10:00
)

// SettingGetter reads job flags and parameters.
type SettingGetter interface {
	Get(key, def string) string
}

// Checker sweeps all active trackers.
type Checker interface {
	CheckAll(ctx context.Context) (int, error)
}

// Searcher runs one lead discovery query.
type Searcher interface {
	Run(ctx context.Context, query, category string) (*models.SearchLog, error)
}

// OutreachQueue feeds untouched contacts into the send pipeline.
type OutreachQueue interface {
	EnqueueNewContacts(ctx context.Context, subject, body string, limit int) (int, error)
}

// Scheduler owns the recurring jobs: tracker sweeps, lead searches and
// outreach sends. Sends go to the queue the auto_send_channel setting names.
type Scheduler struct {
	cron     *cron.Cron
	settings SettingGetter
	checker  Checker
	searcher Searcher
	queues   map[string]OutreachQueue
	logger   *slog.Logger
}

func New(settings SettingGetter, checker Checker, searcher Searcher, queues map[string]OutreachQueue, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		settings: settings,
		checker:  checker,
		searcher: searcher,
		queues:   queues,
		logger:   logger,
	}
}

// Start registers the jobs and launches the cron loop. Jobs run until ctx
// is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(checkSpec, func() { s.runCheck(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(searchSpec, func() { s.runSearch(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(sendSpec, func() { s.runSend(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		"check", checkSpec, "search", searchSpec, "send", sendSpec)
	return nil
}

// Stop halts the cron loop without interrupting a running job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enabled(key, def string) bool {
	return s.settings.Get(key, def) == "true"
}

func (s *Scheduler) runCheck(ctx context.Context) {
	if !s.enabled(SettingAutoCheckEnabled, "true") {
		return
	}
	n, err := s.checker.CheckAll(ctx)
	if err != nil {
		s.logger.Error("scheduled tracker sweep failed", "error", err)
		return
	}
	s.logger.Info("scheduled tracker sweep done", "new_listings", n)
}

func (s *Scheduler) runSearch(ctx context.Context) {
	if !s.enabled(SettingAutoSearchEnabled, "false") {
		return
	}
	query := s.settings.Get(SettingAutoSearchQuery, "")
	if query == "" {
		s.logger.Warn("auto search enabled but no query configured")
		return
	}
	category := s.settings.Get(SettingAutoSearchCategory, "Other")
	if _, err := s.searcher.Run(ctx, query, category); err != nil {
		s.logger.Error("scheduled lead search failed", "error", err)
	}
}

func (s *Scheduler) runSend(ctx context.Context) {
	if !s.enabled(SettingAutoSendEnabled, "false") {
		return
	}
	subject := s.settings.Get(SettingOutreachSubject, "Wholesale spice supply")
	body := s.settings.Get(SettingOutreachBody, "")
	if body == "" {
		s.logger.Warn("auto send enabled but no outreach body configured")
		return
	}

	channel := s.settings.Get(SettingAutoSendChannel, models.ChannelEmail)
	sendQueue, ok := s.queues[channel]
	if !ok {
		s.logger.Error("no queue for auto send channel", "channel", channel)
		return
	}
	limit := util.SafeAtoi(s.settings.Get(SettingAutoSendLimit, ""))
	if limit <= 0 {
		limit = 50
	}
	queued, err := sendQueue.EnqueueNewContacts(ctx, subject, body, limit)
	if err != nil {
		s.logger.Error("scheduled outreach enqueue failed", "error", err)
		return
	}
	s.logger.Info("scheduled outreach queued", "contacts", queued)
}
