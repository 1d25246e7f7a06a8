package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalid            = errors.New("invalid")
	ErrFeedFetch          = errors.New("feed fetch failed")
	ErrFeedParse          = errors.New("feed parse failed")
	ErrSlugExhausted      = errors.New("slug attempts exhausted")
	ErrUnknownPlaceholder = errors.New("unknown template placeholder")
	ErrAlreadyRunning     = errors.New("run already in progress")
)
