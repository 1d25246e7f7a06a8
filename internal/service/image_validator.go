package service

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"
	"unicode"

	_ "golang.org/x/image/webp"
)

type RejectReason string

const (
	RejectNone        RejectReason = ""
	RejectLogo        RejectReason = "logo"
	RejectDataURI     RejectReason = "data_uri"
	RejectTooSmall    RejectReason = "too_small"
	RejectUndecodable RejectReason = "undecodable"
	RejectDimensions  RejectReason = "dimensions"
)

// logoMarkers flag site chrome rather than article imagery. They match whole
// tokens of the host and path, optionally pluralized.
var logoMarkers = map[string]bool{
	"logo":     true,
	"favicon":  true,
	"icon":     true,
	"sprite":   true,
	"avatar":   true,
	"badge":    true,
	"gravatar": true,
	"facebook": true,
	"twitter":  true,
	"share":    true,
	"social":   true,
	"tracking": true,
	"spacer":   true,
	"1x1":      true,
}

type ImageValidator struct {
	minBytes  int
	minWidth  int
	minHeight int
}

func NewImageValidator(minBytes, minWidth, minHeight int) *ImageValidator {
	return &ImageValidator{minBytes: minBytes, minWidth: minWidth, minHeight: minHeight}
}

// Validate decides whether data downloaded from imageURL is fit to be a
// featured image.
func (v *ImageValidator) Validate(imageURL string, data []byte) (bool, RejectReason) {
	if strings.HasPrefix(strings.TrimSpace(imageURL), "data:") {
		return false, RejectDataURI
	}
	if IsLogoLike(imageURL) {
		return false, RejectLogo
	}
	if len(data) < v.minBytes {
		return false, RejectTooSmall
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false, RejectUndecodable
	}
	if cfg.Width < v.minWidth || cfg.Height < v.minHeight {
		return false, RejectDimensions
	}
	return true, RejectNone
}

// IsLogoLike reports whether a token of the URL host or path is a logo,
// icon or tracking marker. Tokens are split on anything that is not a
// letter or digit, so "site-logo.png" matches and "iconic-bridge.jpg" does not.
func IsLogoLike(imageURL string) bool {
	target := imageURL
	if parsed, err := url.Parse(imageURL); err == nil && parsed.Host != "" {
		target = parsed.Host + parsed.Path
	}
	tokens := strings.FieldsFunc(strings.ToLower(target), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		if logoMarkers[token] || logoMarkers[strings.TrimSuffix(token, "s")] {
			return true
		}
	}
	return false
}
