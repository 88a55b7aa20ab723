package notifier

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

// DesktopTransport drives WhatsApp Web in a local Chrome profile. It only
// works on a machine where the operator has already linked the profile to
// their WhatsApp account; the persistent user-data-dir keeps that session.
type DesktopTransport struct {
	userDataDir string
	sendDelay   time.Duration
}

func NewDesktopTransport(userDataDir string) *DesktopTransport {
	return &DesktopTransport{userDataDir: userDataDir, sendDelay: 15 * time.Second}
}

func (d *DesktopTransport) Send(ctx context.Context, phone, message string) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
	)
	if d.userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.userDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	runCtx, runCancel := context.WithTimeout(browserCtx, 90*time.Second)
	defer runCancel()

	chatURL := fmt.Sprintf("https://web.whatsapp.com/send?phone=%s&text=%s",
		url.QueryEscape(phone), url.QueryEscape(message))

	err := chromedp.Run(runCtx,
		chromedp.Navigate(chatURL),
		// WhatsApp Web loads the chat pane well after document ready.
		chromedp.Sleep(d.sendDelay),
		chromedp.WaitVisible(`div[contenteditable="true"][data-tab]`, chromedp.ByQuery),
		chromedp.SendKeys(`div[contenteditable="true"][data-tab]`, "\r", chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("whatsapp web send to %s: %w", phone, err)
	}
	return nil
}
