package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/sources"
	"github.com/vineetmn/spice-outreach/internal/storage"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// Settings keys for the Facebook Graph API.
const (
	SettingFacebookToken    = "fb_access_token"
	SettingFacebookPageID   = "fb_page_id"
	SettingFacebookGroupIDs = "fb_group_ids"
)

const graphAPIBase = "https://graph.facebook.com/v18.0"

// enquirySignals mark a post or comment as a business enquiry rather than
// chatter. Includes the Hinglish phrasing common in Indian trade groups.
var enquirySignals = []string{
	"need", "want", "require", "looking for", "interested",
	"price", "rate", "cost", "quote", "quotation", "pricing",
	"supply", "supplier", "provide", "available", "availability",
	"bulk", "wholesale", "order", "buy", "purchase", "buying",
	"contact", "call me", "whatsapp", "msg me", "dm me", "inbox me",
	"send details", "send info", "more info", "details please",
	"quantity", "kg", "ton", "quintal",
	"urgent", "urgently", "immediately", "asap",
	"dealer", "distributor", "manufacturer", "exporter",
	"chahiye", "chaiye", "mangta", "dedo", "bhejo",
	"kitna", "kya rate", "price batao", "rate batao",
	"kharidna", "lena hai", "mil sakta",
	"contact karo", "number do", "phone number",
}

// IsEnquiry reports whether text reads like a buying enquiry. A non-empty
// keyword also counts as a match on its own.
func IsEnquiry(text, keyword string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, signal := range enquirySignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	if keyword != "" {
		return strings.Contains(lower, strings.ToLower(strings.TrimPrefix(keyword, "#")))
	}
	return false
}

// FacebookLead is one enquiry found in a page or group feed.
type FacebookLead struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
	Posted string `json:"posted"`
}

// FacebookScanReport summarizes one feed scan.
type FacebookScanReport struct {
	Posts     int            `json:"posts"`
	Comments  int            `json:"comments"`
	Enquiries int            `json:"enquiries"`
	Saved     int            `json:"contacts_saved"`
	Leads     []FacebookLead `json:"leads"`
}

// Graph API feed shapes, trimmed to the fields the scan reads.
type fbFeed struct {
	Data []fbPost `json:"data"`
}

type fbPost struct {
	ID          string   `json:"id"`
	Message     string   `json:"message"`
	From        fbAuthor `json:"from"`
	CreatedTime string   `json:"created_time"`
	Comments    struct {
		Data []fbComment `json:"data"`
	} `json:"comments"`
}

type fbAuthor struct {
	Name string `json:"name"`
}

type fbComment struct {
	Message     string   `json:"message"`
	From        fbAuthor `json:"from"`
	CreatedTime string   `json:"created_time"`
}

// FacebookScout scans page and group feeds for buying enquiries and saves
// them as CRM contacts.
type FacebookScout struct {
	settings SettingGetter
	contacts ContactSaver
	fetcher  *sources.Fetcher
	logger   *slog.Logger
}

func NewFacebookScout(settings SettingGetter, contacts ContactSaver, fetcher *sources.Fetcher, logger *slog.Logger) *FacebookScout {
	return &FacebookScout{settings: settings, contacts: contacts, fetcher: fetcher, logger: logger}
}

// ScanPage scans the configured page's posts and their comments.
func (f *FacebookScout) ScanPage(ctx context.Context, keyword string) (*FacebookScanReport, error) {
	pageID := f.settings.Get(SettingFacebookPageID, "")
	if pageID == "" {
		return nil, fmt.Errorf("setting %q is not configured", SettingFacebookPageID)
	}
	report, err := f.scanFeed(ctx, pageID, "posts", keyword, "facebook_page")
	if err != nil {
		return nil, err
	}
	f.finishScan(ctx, report, keyword)
	return report, nil
}

// ScanGroups scans every configured group feed. A group that fails (left,
// deleted, permissions revoked) is logged and skipped.
func (f *FacebookScout) ScanGroups(ctx context.Context, keyword string) (*FacebookScanReport, error) {
	raw := f.settings.Get(SettingFacebookGroupIDs, "")
	var groupIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			groupIDs = append(groupIDs, id)
		}
	}
	if len(groupIDs) == 0 {
		return nil, fmt.Errorf("setting %q is not configured", SettingFacebookGroupIDs)
	}

	total := &FacebookScanReport{}
	for _, groupID := range groupIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report, err := f.scanFeed(ctx, groupID, "feed", keyword, "facebook_group")
		if err != nil {
			f.logger.Warn("facebook group scan failed", "group_id", groupID, "error", err)
			continue
		}
		total.Posts += report.Posts
		total.Comments += report.Comments
		total.Enquiries += report.Enquiries
		total.Leads = append(total.Leads, report.Leads...)
	}
	f.finishScan(ctx, total, keyword)
	return total, nil
}

func (f *FacebookScout) scanFeed(ctx context.Context, fbID, edge, keyword, source string) (*FacebookScanReport, error) {
	token := f.settings.Get(SettingFacebookToken, "")
	if token == "" {
		return nil, fmt.Errorf("setting %q is not configured", SettingFacebookToken)
	}

	params := url.Values{}
	params.Set("fields", "id,message,from,created_time,comments.limit(50){message,from,created_time}")
	params.Set("limit", "50")
	params.Set("access_token", token)

	var feed fbFeed
	feedURL := fmt.Sprintf("%s/%s/%s?%s", graphAPIBase, fbID, edge, params.Encode())
	if err := f.fetcher.FetchJSON(ctx, "facebook", feedURL, &feed); err != nil {
		return nil, fmt.Errorf("fetching %s of %s: %w", edge, fbID, err)
	}
	return leadsFromFeed(feed, keyword, source), nil
}

// leadsFromFeed walks a fetched feed and collects every post or comment
// that reads like an enquiry.
func leadsFromFeed(feed fbFeed, keyword, source string) *FacebookScanReport {
	report := &FacebookScanReport{}
	for _, post := range feed.Data {
		report.Posts++
		if lead, ok := leadFromText(post.Message, post.From.Name, post.CreatedTime, keyword, source); ok {
			report.Enquiries++
			report.Leads = append(report.Leads, lead)
		}
		for _, comment := range post.Comments.Data {
			report.Comments++
			if lead, ok := leadFromText(comment.Message, comment.From.Name, comment.CreatedTime, keyword, source); ok {
				report.Enquiries++
				report.Leads = append(report.Leads, lead)
			}
		}
	}
	return report
}

func leadFromText(text, author, posted, keyword, source string) (FacebookLead, bool) {
	if !IsEnquiry(text, keyword) {
		return FacebookLead{}, false
	}
	lead := FacebookLead{
		Name:   author,
		Text:   text,
		Source: source,
		Posted: posted,
	}
	if lead.Name == "" {
		lead.Name = "Facebook Lead"
	}
	contacts := TextContacts(text)
	if len(contacts.Emails) > 0 {
		lead.Email = contacts.Emails[0]
	}
	if len(contacts.Phones) > 0 {
		lead.Phone = contacts.Phones[0]
	}
	return lead, true
}

// finishScan saves the collected leads as contacts and records the scan.
// Leads keep their name even without a phone or email; a reply on the post
// itself is still a way to reach them.
func (f *FacebookScout) finishScan(ctx context.Context, report *FacebookScanReport, keyword string) {
	for _, lead := range report.Leads {
		contact := &models.Contact{
			CompanyName:   lead.Name,
			ContactPerson: lead.Name,
			Email:         lead.Email,
			Phone:         lead.Phone,
			WhatsApp:      lead.Phone,
			Notes:         "FB: " + util.Truncate(lead.Text, 500),
			Source:        lead.Source,
			Status:        models.ContactStatusNew,
		}
		err := f.contacts.Create(ctx, contact)
		if errors.Is(err, storage.ErrContactExists) {
			continue
		}
		if err != nil {
			f.logger.Error("saving facebook lead", "name", lead.Name, "error", err)
			continue
		}
		report.Saved++
	}

	log := &models.SearchLog{
		Query:         keyword,
		Source:        "facebook",
		ResultsCount:  report.Enquiries,
		ContactsSaved: report.Saved,
	}
	if err := f.contacts.LogSearch(ctx, log); err != nil {
		f.logger.Error("recording facebook scan", "error", err)
	}
	f.logger.Info("facebook scan finished",
		"posts", report.Posts, "comments", report.Comments,
		"enquiries", report.Enquiries, "saved", report.Saved)
}
