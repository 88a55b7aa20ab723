package notifier

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Settings keys for the Twilio transport. Credentials live in the settings
// store (encrypted) rather than the environment so they can be rotated from
// the dashboard.
const (
	SettingTwilioAccountSID = "twilio_account_sid"
	SettingTwilioAuthToken  = "twilio_auth_token"
	SettingTwilioFrom       = "twilio_whatsapp_from"

	defaultTwilioFrom = "+14155238886" // Twilio WhatsApp sandbox number
)

// TwilioTransport sends WhatsApp messages through the Twilio Messaging API.
// The REST client is rebuilt per send because credentials come from the
// settings store and may change between sends.
type TwilioTransport struct {
	settings SettingGetter
}

func NewTwilioTransport(settings SettingGetter) *TwilioTransport {
	return &TwilioTransport{settings: settings}
}

func (t *TwilioTransport) Send(ctx context.Context, phone, message string) error {
	sid := t.settings.Get(SettingTwilioAccountSID, "")
	token := t.settings.Get(SettingTwilioAuthToken, "")
	if sid == "" || token == "" {
		return fmt.Errorf("twilio credentials are not configured")
	}
	from := t.settings.Get(SettingTwilioFrom, defaultTwilioFrom)

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})

	params := &twilioapi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + from)
	params.SetTo("whatsapp:" + phone)
	params.SetBody(message)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send to %s: %w", phone, err)
	}
	return nil
}
