package ai

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vineetmn/spice-outreach/internal/models"
)

func TestDisabledAssistantFallsBackToTemplate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := New(context.Background(), "", "gemini-2.0-flash", logger)

	if a.Enabled() {
		t.Fatal("assistant without an api key should be disabled")
	}

	contact := &models.Contact{CompanyName: "Malabar Traders", ContactPerson: "Anu"}
	draft := a.DraftOutreach(context.Background(), contact, "cardamom")
	if !strings.Contains(draft, "Anu") || !strings.Contains(draft, "Malabar Traders") {
		t.Errorf("template draft missing contact details:\n%s", draft)
	}
}

func TestTemplateOutreachDefaults(t *testing.T) {
	draft := TemplateOutreach(&models.Contact{}, "")
	if !strings.Contains(draft, "Hello there") {
		t.Errorf("missing fallback greeting:\n%s", draft)
	}
	if !strings.Contains(draft, "your business") {
		t.Errorf("missing fallback company:\n%s", draft)
	}
}
