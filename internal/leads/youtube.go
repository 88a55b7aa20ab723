package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/storage"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// buyerSignals weight phrases that suggest a commenter wants to purchase
// rather than chat. Scores are summed per comment.
var buyerSignals = map[string]int{
	"buy":        3,
	"purchase":   3,
	"order":      3,
	"price":      2,
	"rate":       2,
	"cost":       2,
	"wholesale":  4,
	"bulk":       4,
	"export":     4,
	"supplier":   3,
	"contact":    2,
	"whatsapp":   2,
	"number":     1,
	"ship":       2,
	"delivery":   1,
	"kg":         2,
	"quantity":   2,
	"interested": 2,
}

// leadScoreThreshold is the minimum summed keyword weight for a comment to
// count as a lead. Contact and engagement bonuses come on top and only
// affect ranking.
const leadScoreThreshold = 4

// Score bonuses beyond the keyword weights: reachable commenters and fresh,
// engaged comments rank higher.
const (
	emailBonus   = 50
	phoneBonus   = 40
	likesBonus   = 10
	recencyBonus = 10

	likesBonusMin     = 5
	recencyBonusLimit = 30 * 24 * time.Hour
)

// CommentLead is one YouTube comment that scored as a potential buyer.
type CommentLead struct {
	Author     string `json:"author"`
	Comment    string `json:"comment"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Likes      int64  `json:"likes"`
	Published  string `json:"published"`
	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title"`
	Score      int    `json:"score"`
}

// YouTubeScout searches YouTube for videos on a topic, scores their
// comments for buying intent and saves reachable commenters as contacts.
type YouTubeScout struct {
	settings SettingGetter
	contacts ContactSaver
	logger   *slog.Logger
}

func NewYouTubeScout(settings SettingGetter, contacts ContactSaver, logger *slog.Logger) *YouTubeScout {
	return &YouTubeScout{settings: settings, contacts: contacts, logger: logger}
}

// FindLeads scans comments on the top videos for the query and returns the
// ones that clear the score threshold, best first within each video.
func (y *YouTubeScout) FindLeads(ctx context.Context, query string, maxVideos int64) ([]CommentLead, error) {
	apiKey := y.settings.Get(SettingGoogleAPIKey, "")
	if apiKey == "" {
		return nil, fmt.Errorf("setting %q is not configured", SettingGoogleAPIKey)
	}
	if maxVideos <= 0 {
		maxVideos = 5
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("building youtube client: %w", err)
	}

	search, err := svc.Search.List([]string{"id", "snippet"}).
		Context(ctx).Q(query).Type("video").MaxResults(maxVideos).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}

	var leads []CommentLead
	for _, video := range search.Items {
		if video.Id == nil || video.Id.VideoId == "" {
			continue
		}
		comments, err := svc.CommentThreads.List([]string{"snippet"}).
			Context(ctx).VideoId(video.Id.VideoId).MaxResults(100).TextFormat("plainText").Do()
		if err != nil {
			// Comments are disabled on plenty of videos.
			y.logger.Warn("comment fetch failed", "video_id", video.Id.VideoId, "error", err)
			continue
		}

		for _, thread := range comments.Items {
			snippet := thread.Snippet.TopLevelComment.Snippet
			if ScoreComment(snippet.TextDisplay) < leadScoreThreshold {
				continue
			}
			lead := CommentLead{
				Author:     snippet.AuthorDisplayName,
				Comment:    snippet.TextDisplay,
				Likes:      snippet.LikeCount,
				Published:  snippet.PublishedAt,
				VideoID:    video.Id.VideoId,
				VideoTitle: video.Snippet.Title,
			}
			extracted := TextContacts(snippet.TextDisplay)
			if len(extracted.Emails) > 0 {
				lead.Email = extracted.Emails[0]
			}
			if len(extracted.Phones) > 0 {
				lead.Phone = extracted.Phones[0]
			}
			lead.Score = scoreLead(lead, time.Now().UTC())
			leads = append(leads, lead)
		}
	}

	sort.SliceStable(leads, func(i, j int) bool { return leads[i].Score > leads[j].Score })
	saved := y.saveLeads(ctx, leads)

	y.logger.Info("youtube scan finished",
		"query", query, "videos", len(search.Items), "leads", len(leads), "saved", saved)
	return leads, nil
}

// saveLeads stores reachable leads as CRM contacts. A lead without an email
// or phone stays in the scan result only; duplicates are skipped.
func (y *YouTubeScout) saveLeads(ctx context.Context, found []CommentLead) int {
	saved := 0
	for _, lead := range found {
		if lead.Email == "" && lead.Phone == "" {
			continue
		}
		name := lead.Author
		if name == "" {
			name = "YouTube Lead"
		}
		contact := &models.Contact{
			CompanyName:   name,
			ContactPerson: name,
			Email:         lead.Email,
			Phone:         lead.Phone,
			WhatsApp:      lead.Phone,
			Notes:         "YT: " + util.Truncate(lead.Comment, 500),
			Source:        "youtube",
			Status:        models.ContactStatusNew,
		}
		err := y.contacts.Create(ctx, contact)
		if errors.Is(err, storage.ErrContactExists) {
			continue
		}
		if err != nil {
			y.logger.Error("saving youtube lead", "author", lead.Author, "error", err)
			continue
		}
		saved++
	}
	return saved
}

// scoreLead layers ranking bonuses over the keyword score: a reachable
// commenter outranks any keyword pileup, and liked or recent comments edge
// out stale ones.
func scoreLead(lead CommentLead, now time.Time) int {
	score := ScoreComment(lead.Comment)
	if lead.Email != "" {
		score += emailBonus
	}
	if lead.Phone != "" {
		score += phoneBonus
	}
	if lead.Likes >= likesBonusMin {
		score += likesBonus
	}
	if published, err := time.Parse(time.RFC3339, lead.Published); err == nil {
		if now.Sub(published) < recencyBonusLimit {
			score += recencyBonus
		}
	}
	return score
}

// ScoreComment sums the buyer-signal weights present in a comment. Each
// signal counts once no matter how often it repeats.
func ScoreComment(comment string) int {
	lower := strings.ToLower(comment)
	score := 0
	for signal, weight := range buyerSignals {
		if strings.Contains(lower, signal) {
			score += weight
		}
	}
	return score
}
