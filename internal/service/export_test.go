package service

import (
	"time"

	"feedpress/internal/model"
)

// SlugCandidateForTest exposes slug suffixing for tests.
func SlugCandidateForTest(base string, attempt int, now time.Time) string {
	return slugCandidate(base, attempt, now)
}

// RewriteImageURLsForTest exposes body URL rewriting for tests.
func RewriteImageURLsForTest(body string, images []string, uploaded map[string]*UploadedImage) string {
	return rewriteImageURLs(body, images, uploaded)
}

// IsDueForTest exposes the due check for tests.
func IsDueForTest(feed model.FeedSource, now time.Time) bool {
	return isDue(feed, now)
}

// SetNowForTest pins the clock used by the assembler.
func (a *PostAssembler) SetNowForTest(now func() time.Time) {
	a.now = now
}

// SetNowForTest pins the clock used for object keys.
func (u *MediaUploader) SetNowForTest(now func() time.Time) {
	u.now = now
}
