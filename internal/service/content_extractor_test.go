package service_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"feedpress/internal/service"

	"github.com/stretchr/testify/require"
)

func longParagraph(words int) string {
	return "<p>" + strings.TrimSpace(strings.Repeat("lorem ipsum ", words)) + "</p>"
}

func TestContentExtractor_LongInlineSkipsFetch(t *testing.T) {
	fetcher := newFetcherStub()
	extractor := service.NewContentExtractor(fetcher, time.Second, true)

	inline := longParagraph(100) + `<img src="/a.jpg">`
	result := extractor.Extract(context.Background(), "https://site.example/post", inline)

	require.Equal(t, 0, fetcher.count("https://site.example/post"))
	require.Equal(t, "inline", result.Source)
	require.False(t, result.FetchedPage)
	require.Equal(t, []string{"https://site.example/a.jpg"}, result.Images)
	require.Contains(t, result.BodyHTML, `src="https://site.example/a.jpg"`)
}

func TestContentExtractor_HeuristicPicksLongestContainer(t *testing.T) {
	page := `<html><head>
<meta property="og:image" content="/images/lead.jpg">
<meta name="twitter:image" content="https://site.example/tw.jpg">
<script>var tracking = true;</script>
</head><body>
<nav>menu</nav>
<main><p>short main text that is not long enough</p></main>
<div class="entry-content">` + longParagraph(40) + `<img data-src="/images/lazy.jpg" src="data:image/gif;base64,R0lGOD">
<img srcset="/images/small.jpg 480w, /images/large.jpg 1024w">
<img src="//cdn.example/proto.jpg"><script>alert(1)</script></div>
</body></html>`

	fetcher := newFetcherStub()
	fetcher.set("https://site.example/post", http.StatusOK, []byte(page))
	extractor := service.NewContentExtractor(fetcher, time.Second, true)

	result := extractor.Extract(context.Background(), "https://site.example/post", "<p>teaser</p>")

	require.True(t, result.FetchedPage)
	require.Equal(t, "heuristic", result.Source)
	require.Equal(t, "https://site.example/images/lead.jpg", result.MetaImageURL)
	require.Equal(t, []string{
		"https://site.example/images/lazy.jpg",
		"https://site.example/images/small.jpg",
		"https://cdn.example/proto.jpg",
	}, result.Images)
	require.NotContains(t, result.BodyHTML, "<script")
	require.NotContains(t, result.BodyHTML, "data-src")
	require.NotContains(t, result.BodyHTML, "srcset")
	require.NotContains(t, result.BodyHTML, "menu")
}

func TestContentExtractor_SelectorTieKeepsEarlierSelector(t *testing.T) {
	body := longParagraph(30)
	page := `<html><body><div class="post-body">` + body + `</div><article>` + body + `</article></body></html>`

	fetcher := newFetcherStub()
	fetcher.set("https://site.example/tie", http.StatusOK, []byte(page))
	extractor := service.NewContentExtractor(fetcher, time.Second, false)

	result := extractor.Extract(context.Background(), "https://site.example/tie", "")
	require.Equal(t, "heuristic", result.Source)
	require.Contains(t, result.BodyHTML, "lorem ipsum")
}

func TestContentExtractor_FallsBackToInline(t *testing.T) {
	fetcher := newFetcherStub()
	fetcher.set("https://site.example/empty", http.StatusOK, []byte(`<html><body><div>tiny</div></body></html>`))
	extractor := service.NewContentExtractor(fetcher, time.Second, false)

	result := extractor.Extract(context.Background(), "https://site.example/empty", "<p>inline teaser</p>")
	require.Equal(t, "inline", result.Source)
	require.Equal(t, "<p>inline teaser</p>", result.BodyHTML)
}

func TestContentExtractor_FetchFailureFallsBack(t *testing.T) {
	fetcher := newFetcherStub()
	extractor := service.NewContentExtractor(fetcher, time.Second, true)

	result := extractor.Extract(context.Background(), "https://site.example/missing", "<p>inline</p>")
	require.Equal(t, 1, fetcher.count("https://site.example/missing"))
	require.False(t, result.FetchedPage)
	require.Equal(t, "inline", result.Source)
}

func TestContentExtractor_EmptyEverything(t *testing.T) {
	extractor := service.NewContentExtractor(newFetcherStub(), time.Second, true)

	result := extractor.Extract(context.Background(), "", "")
	require.Equal(t, "empty", result.Source)
	require.Equal(t, "<p></p>", result.BodyHTML)
	require.Empty(t, result.Images)
}

func TestContentExtractor_ReadabilityFallback(t *testing.T) {
	var paragraphs strings.Builder
	for i := 0; i < 8; i++ {
		paragraphs.WriteString("<p>This is a substantial paragraph of article text, with commas, that readability should score highly enough to keep.</p>")
	}
	page := `<html><head><title>Story</title></head><body><div class="wrapper"><div class="story">` +
		paragraphs.String() + `</div></div><div class="footer">footer links</div></body></html>`

	fetcher := newFetcherStub()
	fetcher.set("https://site.example/readable", http.StatusOK, []byte(page))

	withReadability := service.NewContentExtractor(fetcher, time.Second, true)
	result := withReadability.Extract(context.Background(), "https://site.example/readable", "<p>teaser</p>")
	require.Equal(t, "readability", result.Source)
	require.Contains(t, result.BodyHTML, "substantial paragraph")

	without := service.NewContentExtractor(fetcher, time.Second, false)
	result = without.Extract(context.Background(), "https://site.example/readable", "<p>teaser</p>")
	require.Equal(t, "inline", result.Source)
}

func TestExtractImages(t *testing.T) {
	html := `<p><img src="a.jpg"><img src="https://x.example/b.png"><img src="a.jpg">
<img src="data:image/png;base64,AAAA"><img alt="no src"><img src="//cdn.example/c.gif"></p>`

	images := service.ExtractImages(html, "https://site.example/posts/1")
	require.Equal(t, []string{
		"https://site.example/posts/a.jpg",
		"https://x.example/b.png",
		"https://cdn.example/c.gif",
	}, images)
}

func TestPlainText(t *testing.T) {
	require.Equal(t, "Hello world", service.PlainText("<p>Hello</p>\n<p>  world </p><script>x()</script>"))
	require.Equal(t, "", service.PlainText("<p> </p>"))
	require.Equal(t, "", service.PlainText(""))
}
