package service_test

import (
	"bytes"
	"testing"
	"time"

	"feedpress/internal/service"

	"github.com/stretchr/testify/require"
)

func TestRunReport_WriteSummary(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	report := &service.RunReport{
		RunID:           "run-1",
		StartedAt:       started,
		FinishedAt:      started.Add(1500 * time.Millisecond),
		FeedsConsidered: 2,
		FeedsSucceeded:  1,
		PostsCreated:    3,
		Published:       2,
		Drafts:          1,
		ImagesUploaded:  4,
		Feeds: []service.FeedSummary{
			{FeedID: 1, FeedName: "Harbour", ItemsInFeed: 5, NewItems: 3, Duplicates: 2, PostsCreated: 3, Published: 2, Drafts: 1},
			{FeedID: 2, FeedName: "Broken", Error: "feed fetch failed: HTTP 500"},
		},
		Errors: []service.RunError{
			{FeedID: 2, FeedName: "Broken", Message: "feed fetch failed: HTTP 500"},
			{FeedID: 1, FeedName: "Harbour", ItemGUID: "g4", Message: "assemble post: slug exhausted"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf))
	out := buf.String()

	require.Contains(t, out, "run run-1 completed in 1.5s")
	require.Contains(t, out, "feeds: 2 considered, 1 succeeded")
	require.Contains(t, out, "posts: 3 created, 2 published, 1 drafts, 4 images uploaded")
	require.Contains(t, out, "FEED")
	require.Contains(t, out, "Harbour")
	require.Contains(t, out, "error: Broken (2): feed fetch failed: HTTP 500")
	require.Contains(t, out, "error: Harbour (1) item g4: assemble post: slug exhausted")
}

func TestRunReport_Cancelled(t *testing.T) {
	report := &service.RunReport{RunID: "r", Cancelled: true}

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf))
	require.Contains(t, buf.String(), "run r cancelled")
	require.NotContains(t, buf.String(), "FEED")
}

func TestRunReport_FeedErrors(t *testing.T) {
	report := &service.RunReport{Errors: []service.RunError{
		{FeedID: 1, Message: "down"},
		{FeedID: 1, ItemGUID: "x", Message: "bad item"},
	}}

	errs := report.FeedErrors()
	require.Len(t, errs, 1)
	require.Equal(t, "down", errs[0].Message)
}
