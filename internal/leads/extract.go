package leads

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[A-Za-z]{2,}`)
	// Indian mobile numbers: optional +91 prefix, first digit 6-9.
	phoneRe = regexp.MustCompile(`(?:\+91[\s\-]?)?[6-9]\d{9}`)

	// Image and framework artifacts that match the email pattern.
	emailJunkSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".css", ".js"}

	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
)

// ExtractedContact is what a single page yields before it becomes a CRM row.
type ExtractedContact struct {
	Emails []string
	Phones []string
}

// ExtractContacts pulls email addresses and Indian phone numbers from a
// page. mailto: and tel: links are preferred; the visible text is scanned
// as a fallback since most small-business sites skip the link markup.
func ExtractContacts(doc *goquery.Document) ExtractedContact {
	var out ExtractedContact
	seenEmail := map[string]bool{}
	seenPhone := map[string]bool{}

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if idx := strings.Index(addr, "?"); idx > 0 {
			addr = addr[:idx]
		}
		addEmail(&out, seenEmail, addr)
	})
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		addPhone(&out, seenPhone, strings.TrimPrefix(href, "tel:"))
	})

	scanText(&out, seenEmail, seenPhone, doc.Find("body").Text())
	return out
}

// TextContacts scans free text (a social post, a comment) for email
// addresses and Indian phone numbers.
func TextContacts(text string) ExtractedContact {
	var out ExtractedContact
	scanText(&out, map[string]bool{}, map[string]bool{}, text)
	return out
}

func scanText(out *ExtractedContact, seenEmail, seenPhone map[string]bool, text string) {
	for _, addr := range emailRe.FindAllString(text, 20) {
		addEmail(out, seenEmail, addr)
	}
	// Numbers are written with arbitrary spacing ("98765 43210"), so the
	// phone scan runs over a separator-stripped copy.
	for _, num := range phoneRe.FindAllString(phoneSeparators.Replace(text), 20) {
		addPhone(out, seenPhone, num)
	}
}

func addEmail(out *ExtractedContact, seen map[string]bool, addr string) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" || seen[addr] || !emailRe.MatchString(addr) {
		return
	}
	for _, suffix := range emailJunkSuffixes {
		if strings.HasSuffix(addr, suffix) {
			return
		}
	}
	seen[addr] = true
	out.Emails = append(out.Emails, addr)
}

func addPhone(out *ExtractedContact, seen map[string]bool, num string) {
	cleaned := phoneSeparators.Replace(strings.TrimSpace(num))
	match := phoneRe.FindString(cleaned)
	if match == "" || seen[match] {
		return
	}
	seen[match] = true
	out.Phones = append(out.Phones, match)
}

// CompanyNameFromTitle reduces a page title to a plausible company name by
// dropping everything after the first separator.
func CompanyNameFromTitle(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " :: ", " — "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	return strings.TrimSpace(title)
}
