package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// TemplateValues are the placeholders a feed title or body template may use.
type TemplateValues struct {
	Content string
	Link    string
	Title   string
	Author  string
	Feed    string
}

func (v TemplateValues) lookup(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "content":
		return v.Content, true
	case "link":
		return v.Link, true
	case "title":
		return v.Title, true
	case "author":
		return v.Author, true
	case "feed":
		return v.Feed, true
	}
	return "", false
}

// HTMLEscaped returns the values for an HTML template: every value except
// the already sanitized content is escaped.
func (v TemplateValues) HTMLEscaped() TemplateValues {
	return TemplateValues{
		Content: v.Content,
		Link:    html.EscapeString(v.Link),
		Title:   html.EscapeString(v.Title),
		Author:  html.EscapeString(v.Author),
		Feed:    html.EscapeString(v.Feed),
	}
}

// ValidateTemplate returns ErrUnknownPlaceholder if tmpl names a placeholder
// other than content, link, title, author or feed.
func ValidateTemplate(tmpl string) error {
	_, err := RenderTemplate(tmpl, TemplateValues{})
	return err
}

// RenderTemplate substitutes every {{name}} in tmpl. Known placeholders
// without a value render empty.
func RenderTemplate(tmpl string, values TemplateValues) (string, error) {
	var unknown []string
	rendered := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := values.lookup(name)
		if !ok {
			unknown = append(unknown, name)
			return match
		}
		return value
	})
	if len(unknown) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlaceholder, strings.Join(unknown, ", "))
	}
	return rendered, nil
}
