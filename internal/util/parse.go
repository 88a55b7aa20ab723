package util

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var priceRunRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractPrice pulls the first decimal run out of free-text price copy
// ("₹ 3.5 Lakh", "Rs. 12,500"). Comma separators are stripped first so
// Indian grouping ("1,20,000") reads as one run. Any mention of "lakh"
// anywhere in the text multiplies the run by 100,000. ok is false when
// the text carries no digits at all.
func ExtractPrice(text string) (value int, ok bool) {
	cleaned := strings.ReplaceAll(text, ",", "")
	run := priceRunRegex.FindString(cleaned)
	if run == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(strings.ToLower(text), "lakh") {
		val *= 100000
	}
	return int(val), true
}

// NormalizePhone coerces a raw phone string into E.164-ish form, defaulting
// to the +91 country code when none is present.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+91" + strings.TrimLeft(phone, "0")
}

// Truncate caps s at max bytes without splitting a rune. Listing columns
// carry fixed widths and Postgres rejects invalid UTF-8, so a cut that lands
// inside a multi-byte rune (the rupee sign in price text, most often) must
// back off to the previous boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size > 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}
