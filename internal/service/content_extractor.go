package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"feedpress/internal/logger"
	"feedpress/internal/network"
)

const (
	// Inline bodies shorter than this (visible characters) trigger a page fetch.
	minInlineTextLength = 800
	// A container must render more than this many characters to win.
	minCandidateLength = 150
	maxPageBytes       = 10 << 20
	emptyBody          = "<p></p>"
)

// articleSelectors are tried in order; the longest match wins and ties go
// to the earlier selector.
var articleSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".entry-content",
	".post-content",
	".article-content",
	".article-body",
	".post-body",
	".story-body",
	".content-body",
	"#article-body",
	"#content",
	".td-post-content",
	"[itemprop=articleBody]",
}

var metaImageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[name="og:image"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[property="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`meta[property="twitter:image:src"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

var lazyImageAttrs = []string{"data-src", "data-lazy-src", "data-original"}

// Extraction is the best-effort article body for one item.
type Extraction struct {
	BodyHTML     string
	Images       []string
	MetaImageURL string
	BaseURL      string
	// Source is one of "heuristic", "readability", "inline" or "empty".
	Source      string
	FetchedPage bool
}

type ContentExtractor interface {
	Extract(ctx context.Context, link, inlineHTML string) Extraction
}

type contentExtractor struct {
	fetcher     network.Fetcher
	timeout     time.Duration
	readability bool
	sanitizer   *bluemonday.Policy
	preclean    *bluemonday.Policy
}

func NewContentExtractor(fetcher network.Fetcher, timeout time.Duration, useReadability bool) ContentExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("figure", "figcaption")

	// Readability scores on structure, so keep the layout elements it looks at.
	preclean := bluemonday.UGCPolicy()
	preclean.AllowElements("article", "section", "header", "footer", "nav", "aside", "main", "figure", "figcaption")
	preclean.AllowAttrs("id", "class", "lang", "dir").Globally()

	return &contentExtractor{
		fetcher:     fetcher,
		timeout:     timeout,
		readability: useReadability,
		sanitizer:   sanitizer,
		preclean:    preclean,
	}
}

func (e *contentExtractor) Extract(ctx context.Context, link, inlineHTML string) Extraction {
	result := Extraction{BaseURL: link}
	inlineHTML = strings.TrimSpace(inlineHTML)

	var body string
	if utf8.RuneCountInString(PlainText(inlineHTML)) < minInlineTextLength && isHTTPURL(link) {
		body = e.fromPage(ctx, link, &result)
	}
	if body == "" && inlineHTML != "" {
		body = inlineHTML
		result.Source = "inline"
	}
	if body == "" {
		result.Source = "empty"
		result.BodyHTML = emptyBody
		return result
	}

	result.BodyHTML = e.sanitizer.Sanitize(normalizeImages(body, result.BaseURL))
	if strings.TrimSpace(result.BodyHTML) == "" {
		result.BodyHTML = emptyBody
	}
	result.Images = ExtractImages(result.BodyHTML, result.BaseURL)
	return result
}

// fromPage fetches the article page and returns the chosen container HTML, or
// "" when nothing usable was found.
func (e *contentExtractor) fromPage(ctx context.Context, link string, result *Extraction) string {
	resp, err := e.fetcher.Fetch(ctx, network.Request{
		URL:      link,
		Accept:   network.AcceptHTML,
		Timeout:  e.timeout,
		MaxBytes: maxPageBytes,
	})
	if err != nil {
		logger.Warn("article fetch failed", "module", "service", "action", "fetch", "resource", "article", "result", "failed", "url", link, "error", err)
		return ""
	}
	if !resp.OK() {
		logger.Warn("article fetch failed", "module", "service", "action", "fetch", "resource", "article", "result", "failed", "url", link, "status_code", resp.StatusCode)
		return ""
	}
	result.FetchedPage = true
	if resp.FinalURL != "" {
		result.BaseURL = resp.FinalURL
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return ""
	}
	result.MetaImageURL = metaImage(doc, result.BaseURL)

	doc.Find("script, style, noscript, template").Remove()
	if html := bestContainer(doc); html != "" {
		result.Source = "heuristic"
		return html
	}

	if e.readability {
		if html := e.readable(resp.Body, result.BaseURL); html != "" {
			result.Source = "readability"
			return html
		}
	}
	return ""
}

func bestContainer(doc *goquery.Document) string {
	var best string
	bestLength := minCandidateLength
	for _, selector := range articleSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			html, err := s.Html()
			if err != nil {
				return
			}
			html = strings.TrimSpace(html)
			if length := utf8.RuneCountInString(html); length > bestLength {
				best = html
				bestLength = length
			}
		})
	}
	return best
}

func (e *contentExtractor) readable(page []byte, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	cleaned := e.preclean.SanitizeBytes(page)
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(cleaned), parsedURL)
	if err != nil {
		logger.Debug("readability failed", "module", "service", "action", "extract", "resource", "article", "result", "failed", "url", pageURL, "error", err)
		return ""
	}
	var buf bytes.Buffer
	if err := article.RenderHTML(&buf); err != nil {
		return ""
	}
	html := strings.TrimSpace(buf.String())
	if PlainText(html) == "" {
		return ""
	}
	return html
}

func metaImage(doc *goquery.Document, base string) string {
	for _, candidate := range metaImageSelectors {
		var found string
		doc.Find(candidate.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value := strings.TrimSpace(s.AttrOr(candidate.attr, ""))
			if value == "" || strings.HasPrefix(value, "data:") {
				return true
			}
			found = resolveURL(base, value)
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// normalizeImages points every img src at an absolute URL, pulling it from
// lazy-load attributes or srcset when src is missing or an inline data URI.
func normalizeImages(html, base string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	images := doc.Find("img")
	if images.Length() == 0 {
		return html
	}
	images.Each(func(_ int, img *goquery.Selection) {
		if src := imageSource(img); src != "" {
			img.SetAttr("src", resolveURL(base, src))
		}
		for _, attr := range lazyImageAttrs {
			img.RemoveAttr(attr)
		}
		img.RemoveAttr("srcset")
		img.RemoveAttr("data-srcset")
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return html
	}
	return out
}

func imageSource(img *goquery.Selection) string {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src != "" && !strings.HasPrefix(src, "data:") {
		return src
	}
	for _, attr := range lazyImageAttrs {
		if value := strings.TrimSpace(img.AttrOr(attr, "")); value != "" && !strings.HasPrefix(value, "data:") {
			return value
		}
	}
	for _, attr := range []string{"srcset", "data-srcset"} {
		if value := firstSrcsetCandidate(img.AttrOr(attr, "")); value != "" {
			return value
		}
	}
	return src
}

func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(srcset), ",")
	fields := strings.Fields(first)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "data:") {
		return ""
	}
	return fields[0]
}

// ExtractImages returns the absolute URLs of every img in html in document
// order, without duplicates or inline data URIs.
func ExtractImages(html, base string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := imageSource(img)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		resolved := resolveURL(base, src)
		if !isHTTPURL(resolved) || seen[resolved] {
			return
		}
		seen[resolved] = true
		images = append(images, resolved)
	})
	return images
}

// PlainText returns the visible text of an HTML fragment with runs of
// whitespace collapsed.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func isHTTPURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
