package service

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultSlug   = "post"
	maxSlugLength = 80
)

// Slugify folds s to lower-case ASCII words joined by hyphens, at most
// maxLen bytes long. Returns "post" when nothing survives.
func Slugify(s string, maxLen int) string {
	folder := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}

	slug := b.String()
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// slugCandidate returns the slug to try on the given attempt. Attempt 0 is
// the base slug; later attempts append a time-derived suffix.
func slugCandidate(base string, attempt int, now time.Time) string {
	if attempt == 0 {
		return base
	}
	suffix := "-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + strconv.Itoa(attempt)
	if len(base)+len(suffix) > maxSlugLength {
		base = strings.TrimRight(base[:maxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}
