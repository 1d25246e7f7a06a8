package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"net/http"
	"sync"
	"testing"

	"feedpress/internal/network"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// makePNG returns a noisy PNG that does not compress below the validator's
// byte minimum.
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	rng := rand.New(rand.NewPCG(uint64(width), uint64(height)))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// fetcherStub serves canned responses by URL and counts requests.
type fetcherStub struct {
	mu        sync.Mutex
	responses map[string]*network.Response
	errs      map[string]error
	calls     map[string]int
}

func newFetcherStub() *fetcherStub {
	return &fetcherStub{
		responses: make(map[string]*network.Response),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (f *fetcherStub) set(url string, status int, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = &network.Response{StatusCode: status, Body: body, FinalURL: url}
}

func (f *fetcherStub) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fetcherStub) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fetcherStub) Fetch(ctx context.Context, req network.Request) (*network.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.URL]++
	if err := f.errs[req.URL]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[req.URL]; ok {
		copied := *resp
		return &copied, nil
	}
	return &network.Response{StatusCode: http.StatusNotFound, FinalURL: req.URL}, nil
}
