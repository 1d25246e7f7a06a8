package service

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

type RunError struct {
	FeedID   int64
	FeedName string
	ItemGUID string
	Message  string
}

func (e RunError) String() string {
	if e.ItemGUID == "" {
		return fmt.Sprintf("%s (%d): %s", e.FeedName, e.FeedID, e.Message)
	}
	return fmt.Sprintf("%s (%d) item %s: %s", e.FeedName, e.FeedID, e.ItemGUID, e.Message)
}

type FeedSummary struct {
	FeedID       int64
	FeedName     string
	ItemsInFeed  int
	NewItems     int
	Duplicates   int
	Deferred     int
	PostsCreated int
	Published    int
	Drafts       int
	FailedItems  int
	Error        string
}

// RunReport aggregates one pass over the due feeds.
type RunReport struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	FeedsConsidered int
	FeedsSucceeded  int
	PostsCreated    int
	Published       int
	Drafts          int
	ImagesUploaded  int
	Cancelled       bool
	Feeds           []FeedSummary
	Errors          []RunError
}

func (r *RunReport) addFeed(summary FeedSummary) {
	r.Feeds = append(r.Feeds, summary)
	r.PostsCreated += summary.PostsCreated
	r.Published += summary.Published
	r.Drafts += summary.Drafts
	if summary.Error == "" {
		r.FeedsSucceeded++
	}
}

// FeedErrors returns the errors that failed a whole feed.
func (r *RunReport) FeedErrors() []RunError {
	var errs []RunError
	for _, e := range r.Errors {
		if e.ItemGUID == "" {
			errs = append(errs, e)
		}
	}
	return errs
}

func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// WriteSummary prints a human readable table of the run.
func (r *RunReport) WriteSummary(w io.Writer) error {
	var b strings.Builder
	status := "completed"
	if r.Cancelled {
		status = "cancelled"
	}
	fmt.Fprintf(&b, "run %s %s in %s\n", r.RunID, status, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "feeds: %d considered, %d succeeded\n", r.FeedsConsidered, r.FeedsSucceeded)
	fmt.Fprintf(&b, "posts: %d created, %d published, %d drafts, %d images uploaded\n", r.PostsCreated, r.Published, r.Drafts, r.ImagesUploaded)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if len(r.Feeds) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FEED\tITEMS\tNEW\tDUP\tDEFERRED\tPOSTS\tPUBLISHED\tDRAFTS\tFAILED\tERROR")
		for _, feed := range r.Feeds {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
				feed.FeedName, feed.ItemsInFeed, feed.NewItems, feed.Duplicates, feed.Deferred,
				feed.PostsCreated, feed.Published, feed.Drafts, feed.FailedItems, feed.Error)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, e := range r.Errors {
		if _, err := fmt.Fprintf(w, "error: %s\n", e); err != nil {
			return err
		}
	}
	return nil
}
