package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Noooste/azuretls-client"

	"feedpress/internal/config"
)

const (
	AcceptFeed  = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"
	AcceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	AcceptImage = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
)

// ErrBodyTooLarge is returned when a response exceeds Request.MaxBytes.
var ErrBodyTooLarge = errors.New("response body too large")

type Request struct {
	URL      string
	Accept   string
	Referer  string
	Timeout  time.Duration
	MaxBytes int64
}

type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher performs GET requests. Errors cover transport failures only;
// callers inspect StatusCode themselves.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

type httpFetcher struct {
	factory   *ClientFactory
	limiter   *HostLimiter
	userAgent string
}

// NewHTTPFetcher returns a Fetcher backed by net/http.
func NewHTTPFetcher(factory *ClientFactory, limiter *HostLimiter, userAgent string) Fetcher {
	if userAgent == "" {
		userAgent = config.ChromeUserAgent
	}
	return &httpFetcher{factory: factory, limiter: limiter, userAgent: userAgent}
}

func (f *httpFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	parsed, err := parseTarget(req.URL)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx, parsed.Host); err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}

	client := f.factory.NewHTTPClient(req.Timeout)
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", parsed.Host, err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, req.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", parsed.Host, err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    finalURL,
	}, nil
}

type browserFetcher struct {
	factory *ClientFactory
	limiter *HostLimiter
}

// NewBrowserFetcher returns a Fetcher that presents a Chrome TLS and header
// fingerprint through azuretls.
func NewBrowserFetcher(factory *ClientFactory, limiter *HostLimiter) Fetcher {
	return &browserFetcher{factory: factory, limiter: limiter}
}

func (f *browserFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	parsed, err := parseTarget(req.URL)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx, parsed.Host); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	session := f.factory.NewAzureSession(timeout)
	defer session.Close()

	referer := req.Referer
	if referer == "" {
		referer = parsed.Scheme + "://" + parsed.Host + "/"
	}
	accept := req.Accept
	if accept == "" {
		accept = "*/*"
	}
	headers := azuretls.OrderedHeaders{
		{"accept", accept},
		{"accept-language", "en-US,en;q=0.9"},
		{"referer", referer},
		{"sec-ch-ua", config.ChromeSecChUa},
		{"sec-ch-ua-mobile", "?0"},
		{"sec-ch-ua-platform", `"Windows"`},
		{"user-agent", config.ChromeUserAgent},
	}

	resp, err := session.Do(&azuretls.Request{
		Method:         http.MethodGet,
		Url:            req.URL,
		OrderedHeaders: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", parsed.Host, err)
	}
	if req.MaxBytes > 0 && int64(len(resp.Body)) > req.MaxBytes {
		return nil, fmt.Errorf("read %s: %w", parsed.Host, ErrBodyTooLarge)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    req.URL,
	}, nil
}

func parseTarget(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q: missing host", rawURL)
	}
	return parsed, nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxBytes {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
