package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// ErrQueueFull is returned when the send buffer cannot take another message.
var ErrQueueFull = errors.New("send queue is full")

// Store is the persistence surface the queue needs: candidate selection,
// the message audit log and the sent counters behind the ceilings.
type Store interface {
	NotYetMessaged(ctx context.Context, status, channel string, limit int) ([]models.Contact, error)
	SetStatus(ctx context.Context, id uint, status string) error
	LogMessage(ctx context.Context, log *models.MessageLog) error
	UpdateMessage(ctx context.Context, log *models.MessageLog) error
	SentSince(ctx context.Context, channel string, cutoff time.Time) (int64, error)
}

// Sender delivers one outreach message on the queue's channel.
type Sender interface {
	Send(ctx context.Context, contact *models.Contact, subject, body string) error
}

// Message is one queued outreach send.
type Message struct {
	Contact models.Contact
	Subject string
	Body    string
}

// Queue is a single-consumer outreach sender. Messages drain through one
// goroutine paced by a rate limiter derived from the hourly ceiling, and
// both hourly and daily ceilings are re-checked against the message log at
// send time so restarts cannot reset the count.
type Queue struct {
	store   Store
	sender  Sender
	channel string
	limiter *rate.Limiter
	perHour int
	perDay  int
	logger  *slog.Logger

	jobs chan Message
	wg   sync.WaitGroup
}

func New(store Store, sender Sender, channel string, perHour, perDay int, logger *slog.Logger) *Queue {
	if perHour <= 0 {
		perHour = 20
	}
	if perDay <= 0 {
		perDay = 200
	}
	return &Queue{
		store:   store,
		sender:  sender,
		channel: channel,
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), 1),
		perHour: perHour,
		perDay:  perDay,
		logger:  logger,
		jobs:    make(chan Message, 256),
	}
}

// Start launches the consumer. It runs until ctx is cancelled; call Wait
// afterwards to let an in-flight send finish.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-q.jobs:
				q.deliver(ctx, msg)
			}
		}
	}()
}

func (q *Queue) Wait() {
	q.wg.Wait()
}

// Enqueue adds one message without blocking.
func (q *Queue) Enqueue(msg Message) error {
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueNewContacts queues up to limit contacts that are still in the new
// status and have never been sent anything on this channel.
func (q *Queue) EnqueueNewContacts(ctx context.Context, subject, body string, limit int) (int, error) {
	contacts, err := q.store.NotYetMessaged(ctx, models.ContactStatusNew, q.channel, limit)
	if err != nil {
		return 0, fmt.Errorf("selecting contacts: %w", err)
	}
	queued := 0
	for _, contact := range contacts {
		if err := q.Enqueue(Message{Contact: contact, Subject: subject, Body: body}); err != nil {
			break
		}
		queued++
	}
	return queued, nil
}

func (q *Queue) deliver(ctx context.Context, msg Message) {
	if err := q.limiter.Wait(ctx); err != nil {
		return
	}

	entry := &models.MessageLog{
		ContactID:   msg.Contact.ID,
		Channel:     q.channel,
		Status:      models.MessageStatusPending,
		Subject:     msg.Subject,
		BodyPreview: preview(msg.Body),
	}
	if err := q.store.LogMessage(ctx, entry); err != nil {
		q.logger.Error("logging outbound message", "contact_id", msg.Contact.ID, "error", err)
		return
	}

	if reason := q.ceilingExceeded(ctx); reason != "" {
		q.fail(ctx, entry, reason)
		return
	}

	if err := q.sender.Send(ctx, &msg.Contact, msg.Subject, msg.Body); err != nil {
		q.fail(ctx, entry, err.Error())
		return
	}

	now := time.Now().UTC()
	entry.Status = models.MessageStatusSent
	entry.SentAt = &now
	if err := q.store.UpdateMessage(ctx, entry); err != nil {
		q.logger.Error("recording sent message", "contact_id", msg.Contact.ID, "error", err)
	}

	if msg.Contact.Status == models.ContactStatusNew {
		if err := q.store.SetStatus(ctx, msg.Contact.ID, models.ContactStatusContacted); err != nil {
			q.logger.Error("advancing contact status", "contact_id", msg.Contact.ID, "error", err)
		}
	}
	q.logger.Info("outreach sent", "contact_id", msg.Contact.ID, "channel", q.channel)
}

func (q *Queue) ceilingExceeded(ctx context.Context) string {
	now := time.Now().UTC()
	hourly, err := q.store.SentSince(ctx, q.channel, now.Add(-time.Hour))
	if err == nil && hourly >= int64(q.perHour) {
		return fmt.Sprintf("hourly ceiling of %d reached", q.perHour)
	}
	daily, err := q.store.SentSince(ctx, q.channel, now.Add(-24*time.Hour))
	if err == nil && daily >= int64(q.perDay) {
		return fmt.Sprintf("daily ceiling of %d reached", q.perDay)
	}
	return ""
}

func (q *Queue) fail(ctx context.Context, entry *models.MessageLog, reason string) {
	entry.Status = models.MessageStatusFailed
	entry.ErrorMessage = reason
	if err := q.store.UpdateMessage(ctx, entry); err != nil {
		q.logger.Error("recording failed message", "contact_id", entry.ContactID, "error", err)
	}
	q.logger.Warn("outreach not sent", "contact_id", entry.ContactID, "reason", reason)
}

func preview(body string) string {
	return util.Truncate(body, 500)
}
