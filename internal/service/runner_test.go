package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedpress/internal/config"
	"feedpress/internal/model"
	"feedpress/internal/network"
	"feedpress/internal/repository"
	"feedpress/internal/repository/testutil"
	"feedpress/internal/service"
	"feedpress/internal/storage"

	"github.com/stretchr/testify/require"
)

var articleText = strings.Repeat("The council met on Tuesday to discuss the harbour plan. ", 6)

// testSite serves feeds, article pages and images, and counts hits per path.
type testSite struct {
	t      *testing.T
	server *httptest.Server

	mu    sync.Mutex
	hits  map[string]int
	feeds map[string]string

	feedStatus atomic.Int32
	onFeed     func(r *http.Request)
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	site := &testSite{t: t, hits: make(map[string]int), feeds: make(map[string]string)}
	site.feedStatus.Store(http.StatusOK)

	lead := makePNG(t, 300, 200)
	body := makePNG(t, 160, 160)
	pixel := makePNG(t, 1, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/", func(w http.ResponseWriter, r *http.Request) {
		site.hit(r.URL.Path)
		if site.onFeed != nil {
			site.onFeed(r)
		}
		if status := int(site.feedStatus.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		site.mu.Lock()
		doc, ok := site.feeds[r.URL.Path]
		site.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(doc))
	})
	mux.HandleFunc("/articles/one", func(w http.ResponseWriter, r *http.Request) {
		site.hit(r.URL.Path)
		site.page(w, `<meta property="og:image" content="/img/lead.png">`, `<p>`+articleText+`</p><img src="/img/body.png">`)
	})
	mux.HandleFunc("/articles/two", func(w http.ResponseWriter, r *http.Request) {
		site.hit(r.URL.Path)
		site.page(w, `<meta property="og:image" content="/img/lead.png">`, `<p>`+articleText+`</p><img src="/img/lead.png">`)
	})
	mux.HandleFunc("/articles/plain", func(w http.ResponseWriter, r *http.Request) {
		site.hit(r.URL.Path)
		site.page(w, "", `<p>`+articleText+`</p>`)
	})
	images := map[string][]byte{"/img/lead.png": lead, "/img/body.png": body, "/t/p.gif": pixel}
	for path, data := range images {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			site.hit(r.URL.Path)
			_, _ = w.Write(data)
		})
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		site.hit(r.URL.Path)
		http.NotFound(w, r)
	})

	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func (s *testSite) hit(path string) {
	s.mu.Lock()
	s.hits[path]++
	s.mu.Unlock()
}

func (s *testSite) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *testSite) page(w http.ResponseWriter, head, article string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><head><title>Page</title>%s</head><body><nav>Home</nav><article>%s</article></body></html>`, head, article)
}

func (s *testSite) url(path string) string {
	return s.server.URL + path
}

// setFeed registers an RSS document at path. Items are given as
// guid|title|link-path|enclosure-path; empty parts are omitted.
func (s *testSite) setFeed(path string, items ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/"><channel><title>Harbour News</title>`)
	fmt.Fprintf(&b, `<link>%s</link><image><url>%s</url></image>`, s.url("/"), s.url("/brand.png"))
	for _, entry := range items {
		parts := strings.Split(entry, "|")
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<guid>%s</guid><title>%s</title>", parts[0], parts[1])
		if parts[2] != "" {
			fmt.Fprintf(&b, "<link>%s</link>", s.url(parts[2]))
		}
		b.WriteString("<content:encoded><![CDATA[<p>Short note</p>]]></content:encoded>")
		if len(parts) > 3 && parts[3] != "" {
			fmt.Fprintf(&b, `<enclosure url="%s" type="image/gif" length="1"/>`, s.url(parts[3]))
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")

	s.mu.Lock()
	s.feeds[path] = b.String()
	s.mu.Unlock()
	return s.url(path)
}

type runnerFixture struct {
	site     *testSite
	db       *sql.DB
	store    *storage.MemoryStore
	feeds    repository.FeedSourceRepository
	items    repository.FeedItemRepository
	contents repository.ContentRepository
	runner   service.FeedRunner
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	site := newTestSite(t)
	database := testutil.NewTestDB(t)
	fetcher := network.NewHTTPFetcher(network.NewClientFactoryForTest(site.server.Client()), nil, "feedpress-test")
	store := storage.NewMemoryStore("https://cdn.example")

	feeds := repository.NewFeedSourceRepository(database)
	items := repository.NewFeedItemRepository(database)
	contents := repository.NewContentRepository(database)

	uploader := service.NewMediaUploader(fetcher, store, service.UploaderOptions{Concurrency: 2})
	runner := service.NewFeedRunner(service.RunnerDeps{
		Feeds:     feeds,
		Items:     items,
		Parser:    service.NewFeedParser(fetcher, 5*time.Second),
		Extractor: service.NewContentExtractor(fetcher, 5*time.Second, true),
		Uploader:  uploader,
		Assembler: service.NewPostAssembler(contents, service.NewImageValidator(1024, 100, 100), service.AssemblerOptions{
			PlaceholderPrefixes: config.DefaultPlaceholderPrefixes,
		}),
	}, 10)

	return &runnerFixture{
		site:     site,
		db:       database,
		store:    store,
		feeds:    feeds,
		items:    items,
		contents: contents,
		runner:   runner,
	}
}

func (f *runnerFixture) seedFeed(t *testing.T, name, url string, maxItems int) int64 {
	t.Helper()
	return testutil.SeedFeedSource(t, f.db, model.FeedSource{
		Name:             name,
		URL:              url,
		Enabled:          true,
		AutoPublish:      true,
		MaxItemsPerFetch: maxItems,
	})
}

func (f *runnerFixture) posts(t *testing.T) map[string]model.Content {
	t.Helper()
	list, err := f.contents.List(context.Background(), repository.ContentListFilter{})
	require.NoError(t, err)
	bySlug := make(map[string]model.Content, len(list))
	for _, content := range list {
		bySlug[content.Slug] = content
	}
	return bySlug
}

func TestFeedRunner_RunAllCreatesPosts(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/harbour.xml",
		"g1|First story|/articles/one",
		"g2|Second story|/articles/two",
		"g3|Third story|/articles/missing|/t/p.gif",
	)
	feedID := f.seedFeed(t, "Harbour", url, 0)

	report, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.False(t, report.Cancelled)
	require.Empty(t, report.Errors)
	require.Equal(t, 1, report.FeedsConsidered)
	require.Equal(t, 1, report.FeedsSucceeded)
	require.Equal(t, 3, report.PostsCreated)
	require.Equal(t, 2, report.Published)
	require.Equal(t, 1, report.Drafts)
	require.Equal(t, 3, report.ImagesUploaded)
	require.Equal(t, 3, f.store.Puts())

	require.Len(t, report.Feeds, 1)
	summary := report.Feeds[0]
	require.Equal(t, 3, summary.ItemsInFeed)
	require.Equal(t, 3, summary.NewItems)
	require.Zero(t, summary.Duplicates)

	posts := f.posts(t)
	require.Len(t, posts, 3)

	first := posts["first-story"]
	require.Equal(t, model.ContentStatusPublished, first.Status)
	require.NotNil(t, first.FeaturedImageURL)
	require.True(t, strings.HasPrefix(*first.FeaturedImageURL, "https://cdn.example/uploads/"))
	require.NotContains(t, first.Body, f.site.server.URL)
	require.Equal(t, feedID, *first.FeedSourceID)

	second := posts["second-story"]
	require.Equal(t, model.ContentStatusPublished, second.Status)
	require.Equal(t, *first.FeaturedImageURL, *second.FeaturedImageURL)

	third := posts["third-story"]
	require.Equal(t, model.ContentStatusDraft, third.Status)
	require.Nil(t, third.FeaturedImageURL)
	require.Contains(t, third.Body, "Short note")

	// The shared lead image is downloaded once per run.
	require.Equal(t, 1, f.site.count("/img/lead.png"))

	feed, err := f.feeds.GetByID(context.Background(), feedID)
	require.NoError(t, err)
	require.NotNil(t, feed.LastFetchedAt)
	require.Nil(t, feed.LastError)
	require.Zero(t, feed.ErrorCount)
	require.Equal(t, f.site.url("/brand.png"), *feed.SiteImageURL)

	items, err := f.items.ListByFeed(context.Background(), feedID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		require.True(t, item.Processed)
		require.NotNil(t, item.ContentID)
	}
}

func TestFeedRunner_SkipsAlreadySeenItem(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/harbour.xml",
		"g1|First story|/articles/one",
		"g2|Second story|/articles/two",
		"g3|Third story|/articles/missing|/t/p.gif",
	)
	feedID := f.seedFeed(t, "Harbour", url, 0)
	_, err := f.items.Create(context.Background(), model.FeedItem{FeedSourceID: feedID, GUID: "g1", Title: "First story"})
	require.NoError(t, err)

	report, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)

	summary := report.Feeds[0]
	require.Equal(t, 3, summary.ItemsInFeed)
	require.Equal(t, 2, summary.NewItems)
	require.Equal(t, 1, summary.Duplicates)
	require.Equal(t, 2, summary.PostsCreated)
	require.Zero(t, f.site.count("/articles/one"))

	items, err := f.items.ListByFeed(context.Background(), feedID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	posts := f.posts(t)
	require.NotContains(t, posts, "first-story")
	require.Equal(t, model.ContentStatusDraft, posts["third-story"].Status)
	require.Nil(t, posts["third-story"].FeaturedImageURL)
}

func TestFeedRunner_RerunIsIdempotent(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/harbour.xml",
		"g1|First story|/articles/one",
		"g2|Second story|/articles/two",
	)
	feedID := f.seedFeed(t, "Harbour", url, 0)

	_, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)

	report, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.FeedsConsidered, "feed is not due again yet")

	report, err = f.runner.RunFeed(context.Background(), feedID)
	require.NoError(t, err)
	require.Zero(t, report.PostsCreated)
	require.Zero(t, report.Feeds[0].NewItems)
	require.Equal(t, 2, report.Feeds[0].Duplicates)
	require.Len(t, f.posts(t), 2)
	require.Equal(t, 1, f.site.count("/articles/one"))
}

func TestFeedRunner_DuplicateGUIDInDocument(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/dup.xml",
		"same|Plain one|/articles/plain",
		"same|Plain two|/articles/plain",
	)
	f.seedFeed(t, "Dup", url, 0)

	report, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.PostsCreated)
	require.Equal(t, 1, report.Feeds[0].Duplicates)
}

func TestFeedRunner_FeedIsolation(t *testing.T) {
	f := newRunnerFixture(t)
	good := f.site.setFeed("/feeds/good.xml", "g1|First story|/articles/one")
	brokenID := f.seedFeed(t, "Broken", f.site.url("/feeds/missing.xml"), 0)
	goodID := f.seedFeed(t, "Good", good, 0)

	report, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.FeedsConsidered)
	require.Equal(t, 1, report.FeedsSucceeded)
	require.Equal(t, 1, report.PostsCreated)

	feedErrors := report.FeedErrors()
	require.Len(t, feedErrors, 1)
	require.Equal(t, brokenID, feedErrors[0].FeedID)
	require.Contains(t, feedErrors[0].Message, "404")

	broken, err := f.feeds.GetByID(context.Background(), brokenID)
	require.NoError(t, err)
	require.Equal(t, 1, broken.ErrorCount)
	require.NotNil(t, broken.LastError)
	require.NotNil(t, broken.LastFetchedAt)

	healthy, err := f.feeds.GetByID(context.Background(), goodID)
	require.NoError(t, err)
	require.Zero(t, healthy.ErrorCount)
}

func TestFeedRunner_ErrorCounterResetsOnSuccess(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/flaky.xml", "g1|Plain story|/articles/plain")
	feedID := f.seedFeed(t, "Flaky", url, 0)
	ctx := context.Background()

	f.site.feedStatus.Store(http.StatusBadGateway)
	for i := 0; i < 2; i++ {
		_, err := f.runner.RunFeed(ctx, feedID)
		require.NoError(t, err)
	}
	feed, err := f.feeds.GetByID(ctx, feedID)
	require.NoError(t, err)
	require.Equal(t, 2, feed.ErrorCount)
	require.Contains(t, *feed.LastError, "502")

	f.site.feedStatus.Store(http.StatusOK)
	report, err := f.runner.RunFeed(ctx, feedID)
	require.NoError(t, err)
	require.Equal(t, 1, report.PostsCreated)

	feed, err = f.feeds.GetByID(ctx, feedID)
	require.NoError(t, err)
	require.Zero(t, feed.ErrorCount)
	require.Nil(t, feed.LastError)
}

func TestFeedRunner_CapDefersItems(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/busy.xml",
		"a|Alpha|/articles/plain",
		"b|Bravo|/articles/plain",
		"c|Charlie|/articles/plain",
	)
	feedID := f.seedFeed(t, "Busy", url, 2)

	report, err := f.runner.RunFeed(context.Background(), feedID)
	require.NoError(t, err)
	require.Equal(t, 2, report.PostsCreated)
	require.Equal(t, 1, report.Feeds[0].Deferred)

	report, err = f.runner.RunFeed(context.Background(), feedID)
	require.NoError(t, err)
	require.Equal(t, 1, report.PostsCreated)
	require.Equal(t, 2, report.Feeds[0].Duplicates)
	require.Contains(t, f.posts(t), "charlie")
}

func TestFeedRunner_SameTitleGetsUniqueSlugs(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/repeat.xml",
		"x1|Daily Briefing|/articles/plain",
		"x2|Daily Briefing|/articles/plain",
	)
	f.seedFeed(t, "Repeat", url, 0)

	report, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.PostsCreated)

	posts := f.posts(t)
	require.Len(t, posts, 2)
	require.Contains(t, posts, "daily-briefing")
}

func TestFeedRunner_CancelledDuringFetch(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/slow.xml", "g1|Plain story|/articles/plain")
	feedID := f.seedFeed(t, "Slow", url, 0)
	f.seedFeed(t, "Never", f.site.setFeed("/feeds/never.xml", "n1|Never|/articles/plain"), 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.site.onFeed = func(r *http.Request) {
		cancel()
		<-r.Context().Done()
	}

	report, err := f.runner.RunAll(ctx)
	require.NoError(t, err)
	require.True(t, report.Cancelled)
	require.Empty(t, report.Errors)
	require.Zero(t, report.PostsCreated)
	require.Equal(t, 1, report.FeedsConsidered)
	require.Zero(t, f.site.count("/feeds/never.xml"))

	feed, err := f.feeds.GetByID(context.Background(), feedID)
	require.NoError(t, err)
	require.Zero(t, feed.ErrorCount)
	require.Nil(t, feed.LastError)
}

func TestFeedRunner_RejectsConcurrentRun(t *testing.T) {
	f := newRunnerFixture(t)
	url := f.site.setFeed("/feeds/slow.xml", "g1|Plain story|/articles/plain")
	feedID := f.seedFeed(t, "Slow", url, 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.site.onFeed = func(*http.Request) {
		once.Do(func() { close(entered) })
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.runner.RunFeed(context.Background(), feedID)
		done <- err
	}()

	<-entered
	require.True(t, f.runner.IsRunning())
	_, err := f.runner.RunAll(context.Background())
	require.ErrorIs(t, err, service.ErrAlreadyRunning)

	close(release)
	require.NoError(t, <-done)
	require.False(t, f.runner.IsRunning())
}

func TestFeedRunner_RunFeedNotFound(t *testing.T) {
	f := newRunnerFixture(t)

	_, err := f.runner.RunFeed(context.Background(), 404)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.False(t, f.runner.IsRunning())
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-30 * time.Minute)
	stale := now.Add(-2 * time.Hour)

	cases := []struct {
		name string
		feed model.FeedSource
		want bool
	}{
		{"never fetched", model.FeedSource{Enabled: true, FetchIntervalMinutes: 60}, true},
		{"fetched recently", model.FeedSource{Enabled: true, FetchIntervalMinutes: 60, LastFetchedAt: &recent}, false},
		{"interval elapsed", model.FeedSource{Enabled: true, FetchIntervalMinutes: 60, LastFetchedAt: &stale}, true},
		{"disabled", model.FeedSource{Enabled: false, FetchIntervalMinutes: 60}, false},
		{"no interval", model.FeedSource{Enabled: true, LastFetchedAt: &recent}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, service.IsDueForTest(tc.feed, now))
		})
	}
}
