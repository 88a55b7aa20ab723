package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// Assistant drafts outreach copy with Gemini. Without an API key it stays
// disabled and every draft falls back to the static template, so outreach
// keeps working on installs that never configure AI.
type Assistant struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func New(ctx context.Context, apiKey, model string, logger *slog.Logger) *Assistant {
	a := &Assistant{model: model, logger: logger}
	if apiKey == "" {
		logger.Warn("gemini api key not set, ai drafting disabled")
		return a
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error("gemini client init failed, ai drafting disabled", "error", err)
		return a
	}
	a.client = client
	return a
}

func (a *Assistant) Enabled() bool {
	return a.client != nil
}

// DraftOutreach produces an introduction message for a contact. The model
// output is used verbatim; when the model is unavailable or errors, the
// static template is returned instead so a send is never blocked on AI.
func (a *Assistant) DraftOutreach(ctx context.Context, contact *models.Contact, product string) string {
	if !a.Enabled() {
		return TemplateOutreach(contact, product)
	}

	prompt := fmt.Sprintf(
		"Write a short, polite B2B introduction message (under 120 words, plain text, no subject line) "+
			"from a spice exporter to %s, a %s business in %s, proposing %s. "+
			"Mention one concrete benefit and end with a question.",
		orDefault(contact.CompanyName, "a prospective buyer"),
		orDefault(contact.Category, "trading"),
		orDefault(contact.City, "India"),
		orDefault(product, "a wholesale spice partnership"),
	)

	result, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), nil)
	if err != nil {
		a.logger.Error("gemini draft failed, using template", "error", err)
		return TemplateOutreach(contact, product)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return TemplateOutreach(contact, product)
	}
	return text
}

// TemplateOutreach is the non-AI fallback draft.
func TemplateOutreach(contact *models.Contact, product string) string {
	name := orDefault(contact.ContactPerson, "there")
	return fmt.Sprintf(
		"Hello %s,\n\nWe are a Kerala-based spice exporter supplying %s at wholesale rates "+
			"with export-grade quality checks. We would love to discuss how we can supply %s.\n\n"+
			"Could we share our current price list?\n",
		name,
		orDefault(product, "cardamom, black pepper and turmeric"),
		orDefault(contact.CompanyName, "your business"),
	)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
