package leads

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/storage"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractContactsFromLinks(t *testing.T) {
	html := `<html><body>
		<a href="mailto:sales@malabarspices.example?subject=hi">Email us</a>
		<a href="tel:+91 98765 43210">Call</a>
		<p>Reach us at info@malabarspices.example or 9447012345.</p>
	</body></html>`

	got := ExtractContacts(docFromHTML(t, html))
	if len(got.Emails) != 2 {
		t.Fatalf("emails = %v", got.Emails)
	}
	if got.Emails[0] != "sales@malabarspices.example" {
		t.Errorf("mailto address should come first, got %v", got.Emails)
	}
	if len(got.Phones) != 2 {
		t.Fatalf("phones = %v", got.Phones)
	}
	if got.Phones[0] != "+919876543210" {
		t.Errorf("phones = %v", got.Phones)
	}
}

func TestExtractContactsSkipsJunkAndDuplicates(t *testing.T) {
	html := `<html><body>
		<img src="banner@2x.png">
		<p>logo@2x.png is not an address. Write to hello@acme.example.</p>
		<p>Again: hello@acme.example</p>
		<p>Call 9447012345 or 9447012345.</p>
		<p>Landline 0484-1234567 is not a mobile.</p>
	</body></html>`

	got := ExtractContacts(docFromHTML(t, html))
	if len(got.Emails) != 1 || got.Emails[0] != "hello@acme.example" {
		t.Errorf("emails = %v", got.Emails)
	}
	if len(got.Phones) != 1 || got.Phones[0] != "9447012345" {
		t.Errorf("phones = %v", got.Phones)
	}
}

func TestCompanyNameFromTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Malabar Spices | Wholesale Cardamom", "Malabar Spices"},
		{"Acme Exports - Home", "Acme Exports"},
		{"Plain Company", "Plain Company"},
	}
	for _, tc := range cases {
		if got := CompanyNameFromTitle(tc.in); got != tc.want {
			t.Errorf("CompanyNameFromTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestScoreComment(t *testing.T) {
	cases := []struct {
		comment string
		min     int
		isLead  bool
	}{
		{"Where can I buy this? Please share the wholesale price", 9, true},
		{"I want to purchase 50 kg, what is the rate?", 7, true},
		{"Nice video!", 0, false},
		{"BUY in bulk, interested", 9, true},
	}
	for _, tc := range cases {
		score := ScoreComment(tc.comment)
		if score < tc.min {
			t.Errorf("ScoreComment(%q) = %d, want at least %d", tc.comment, score, tc.min)
		}
		if (score >= leadScoreThreshold) != tc.isLead {
			t.Errorf("ScoreComment(%q) = %d, lead classification wrong", tc.comment, score)
		}
	}
}

func TestScoreLeadBonuses(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	base := CommentLead{Comment: "interested, what is the price?"}
	keywordOnly := scoreLead(base, now)

	withEmail := base
	withEmail.Email = "buyer@traders.example"
	if got := scoreLead(withEmail, now); got != keywordOnly+emailBonus {
		t.Errorf("email bonus: got %d, want %d", got, keywordOnly+emailBonus)
	}

	withPhone := base
	withPhone.Phone = "9876543210"
	if got := scoreLead(withPhone, now); got != keywordOnly+phoneBonus {
		t.Errorf("phone bonus: got %d, want %d", got, keywordOnly+phoneBonus)
	}

	liked := base
	liked.Likes = 5
	if got := scoreLead(liked, now); got != keywordOnly+likesBonus {
		t.Errorf("likes bonus: got %d, want %d", got, keywordOnly+likesBonus)
	}

	fresh := base
	fresh.Published = now.Add(-48 * time.Hour).Format(time.RFC3339)
	if got := scoreLead(fresh, now); got != keywordOnly+recencyBonus {
		t.Errorf("recency bonus: got %d, want %d", got, keywordOnly+recencyBonus)
	}

	stale := base
	stale.Published = now.Add(-60 * 24 * time.Hour).Format(time.RFC3339)
	if got := scoreLead(stale, now); got != keywordOnly {
		t.Errorf("stale comment must not get the recency bonus, got %d", got)
	}
}

type fakeSaver struct {
	created  []*models.Contact
	searches []*models.SearchLog
	existing map[string]bool
}

func (f *fakeSaver) Create(ctx context.Context, contact *models.Contact) error {
	if f.existing[contact.CompanyName] {
		return storage.ErrContactExists
	}
	f.created = append(f.created, contact)
	return nil
}

func (f *fakeSaver) LogSearch(ctx context.Context, log *models.SearchLog) error {
	f.searches = append(f.searches, log)
	return nil
}

func testLeadsLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSaveLeadsKeepsOnlyReachableCommenters(t *testing.T) {
	saver := &fakeSaver{existing: map[string]bool{"Known Trader": true}}
	scout := NewYouTubeScout(nil, saver, testLeadsLogger())

	saved := scout.saveLeads(context.Background(), []CommentLead{
		{Author: "Anu", Comment: "send rate to anu@traders.example", Email: "anu@traders.example"},
		{Author: "Known Trader", Comment: "price?", Phone: "9876543210"},
		{Author: "Chatty", Comment: "nice video, interested"},
	})
	if saved != 1 {
		t.Fatalf("saved = %d, want 1", saved)
	}
	contact := saver.created[0]
	if contact.CompanyName != "Anu" || contact.Email != "anu@traders.example" {
		t.Errorf("contact = %+v", contact)
	}
	if contact.Source != "youtube" || contact.Status != models.ContactStatusNew {
		t.Errorf("source = %q, status = %q", contact.Source, contact.Status)
	}
	if !strings.HasPrefix(contact.Notes, "YT: ") {
		t.Errorf("notes = %q", contact.Notes)
	}
}

func TestIsEnquiry(t *testing.T) {
	cases := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"Need 100 kg cardamom, price batao", "", true},
		{"bhai rate kitna hai, whatsapp karo", "", true},
		{"Beautiful photos from Munnar!", "", false},
		{"Beautiful photos from Munnar!", "#cardamom", false},
		{"Best cardamom season this year", "#cardamom", true},
		{"", "cardamom", false},
	}
	for _, tc := range cases {
		if got := IsEnquiry(tc.text, tc.keyword); got != tc.want {
			t.Errorf("IsEnquiry(%q, %q) = %v, want %v", tc.text, tc.keyword, got, tc.want)
		}
	}
}

func TestLeadsFromFeed(t *testing.T) {
	feed := fbFeed{Data: []fbPost{
		{
			Message:     "Need bulk turmeric urgently, call 9447012345",
			From:        fbAuthor{Name: "Ravi Traders"},
			CreatedTime: "2026-08-20T10:00:00+0000",
			Comments: struct {
				Data []fbComment `json:"data"`
			}{Data: []fbComment{
				{Message: "Great post!", From: fbAuthor{Name: "Fan"}},
				{Message: "Interested, send details to ravi@example.in", From: fbAuthor{Name: "Ravi"}},
			}},
		},
		{Message: "Weekend greetings to all members"},
	}}

	report := leadsFromFeed(feed, "", "facebook_group")
	if report.Posts != 2 || report.Comments != 2 {
		t.Errorf("posts = %d, comments = %d", report.Posts, report.Comments)
	}
	if report.Enquiries != 2 || len(report.Leads) != 2 {
		t.Fatalf("enquiries = %d, leads = %v", report.Enquiries, report.Leads)
	}
	if report.Leads[0].Phone != "9447012345" {
		t.Errorf("post lead phone = %q", report.Leads[0].Phone)
	}
	if report.Leads[1].Email != "ravi@example.in" {
		t.Errorf("comment lead email = %q", report.Leads[1].Email)
	}
	if report.Leads[0].Source != "facebook_group" {
		t.Errorf("source = %q", report.Leads[0].Source)
	}
}

func TestTextContacts(t *testing.T) {
	got := TextContacts("WhatsApp me on +91 98765 43210 or mail sales@spices.example")
	if len(got.Phones) != 1 || got.Phones[0] != "+919876543210" {
		t.Errorf("phones = %v", got.Phones)
	}
	if len(got.Emails) != 1 || got.Emails[0] != "sales@spices.example" {
		t.Errorf("emails = %v", got.Emails)
	}
}
