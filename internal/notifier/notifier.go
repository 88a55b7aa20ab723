package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// Settings keys the notifier reads at send time, so operators can switch
// transports without a restart.
const (
	SettingWhatsAppMode = "whatsapp_mode"

	ModeTwilio  = "twilio"
	ModeDesktop = "desktop"
)

// previewLimit caps how many listings one alert spells out. Everything past
// the cap is summarized in a trailing count line.
const previewLimit = 10

// SettingGetter supplies runtime configuration such as the transport mode.
type SettingGetter interface {
	Get(key, def string) string
}

// Transport delivers one WhatsApp message to a normalized phone number.
type Transport interface {
	Send(ctx context.Context, phone, message string) error
}

// WhatsAppNotifier formats listing alerts and hands them to whichever
// transport the whatsapp_mode setting selects. Delivery failures are
// logged, never returned: an undelivered alert must not fail a check.
type WhatsAppNotifier struct {
	settings   SettingGetter
	transports map[string]Transport
	logger     *slog.Logger
}

func NewWhatsAppNotifier(settings SettingGetter, transports map[string]Transport, logger *slog.Logger) *WhatsAppNotifier {
	return &WhatsAppNotifier{settings: settings, transports: transports, logger: logger}
}

// Send delivers one message through the transport the whatsapp_mode setting
// currently selects. It satisfies Transport itself, so the outreach queue
// can send over WhatsApp without caring which mode is active.
func (n *WhatsAppNotifier) Send(ctx context.Context, phone, message string) error {
	mode := n.settings.Get(SettingWhatsAppMode, ModeTwilio)
	transport, ok := n.transports[mode]
	if !ok {
		return fmt.Errorf("no transport for whatsapp mode %q", mode)
	}
	return transport.Send(ctx, phone, message)
}

func (n *WhatsAppNotifier) NotifyNewListings(ctx context.Context, tracker *models.Tracker, listings []models.Listing) {
	if len(listings) == 0 || tracker.WhatsAppNumber == "" {
		return
	}

	phone := util.NormalizePhone(tracker.WhatsAppNumber)
	message := FormatAlert(tracker, listings)
	if err := n.Send(ctx, phone, message); err != nil {
		n.logger.Error("whatsapp alert failed", "tracker_id", tracker.ID, "error", err)
		return
	}
	n.logger.Info("whatsapp alert sent", "tracker_id", tracker.ID, "listings", len(listings))
}

// FormatAlert renders one alert message: a header with the count and query,
// up to previewLimit listings, then a summary line for the remainder.
func FormatAlert(tracker *models.Tracker, listings []models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 *%d new listing(s) for '%s'*\n\n", len(listings), tracker.SearchQuery)

	shown := listings
	if len(shown) > previewLimit {
		shown = shown[:previewLimit]
	}
	for i, l := range shown {
		fmt.Fprintf(&b, "%d. %s\n", i+1, l.Title)
		detail := l.Price
		if l.Location != "" {
			if detail != "" {
				detail += " | "
			}
			detail += l.Location
		}
		if detail != "" {
			fmt.Fprintf(&b, "   %s\n", detail)
		}
		if l.URL != "" {
			fmt.Fprintf(&b, "   %s\n", l.URL)
		}
		b.WriteString("\n")
	}

	if rest := len(listings) - previewLimit; rest > 0 {
		fmt.Fprintf(&b, "... and %d more.", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}
