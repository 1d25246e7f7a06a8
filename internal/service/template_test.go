package service_test

import (
	"testing"

	"feedpress/internal/service"

	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	values := service.TemplateValues{
		Content: "<p>Body</p>",
		Link:    "https://example.com/a",
		Title:   "Hello",
		Feed:    "Example",
	}

	out, err := service.RenderTemplate(`{{content}}<p>Source: <a href="{{ link }}">{{feed}}</a> by {{author}}</p>`, values)
	require.NoError(t, err)
	require.Equal(t, `<p>Body</p><p>Source: <a href="https://example.com/a">Example</a> by </p>`, out)

	out, err = service.RenderTemplate("[{{FEED}}] {{title}}", values)
	require.NoError(t, err)
	require.Equal(t, "[Example] Hello", out)
}

func TestTemplateValues_HTMLEscaped(t *testing.T) {
	values := service.TemplateValues{
		Content: "<p>Body</p>",
		Link:    "https://example.com/a?x=1&y=2",
		Title:   "Tom & Jerry <script>alert(1)</script>",
		Author:  "<b>Ann</b>",
		Feed:    "A\"B",
	}

	out, err := service.RenderTemplate(`<h1>{{title}}</h1>{{content}}<a href="{{link}}">{{feed}}</a> {{author}}`, values.HTMLEscaped())
	require.NoError(t, err)
	require.Equal(t, `<h1>Tom &amp; Jerry &lt;script&gt;alert(1)&lt;/script&gt;</h1><p>Body</p><a href="https://example.com/a?x=1&amp;y=2">A&#34;B</a> &lt;b&gt;Ann&lt;/b&gt;`, out)
}

func TestRenderTemplate_ValuesAreNotExpanded(t *testing.T) {
	out, err := service.RenderTemplate("{{title}}", service.TemplateValues{Title: "{{content}}"})
	require.NoError(t, err)
	require.Equal(t, "{{content}}", out)
}

func TestRenderTemplate_UnknownPlaceholder(t *testing.T) {
	_, err := service.RenderTemplate("{{content}} {{excerpt}} {{date}}", service.TemplateValues{})
	require.ErrorIs(t, err, service.ErrUnknownPlaceholder)
	require.Contains(t, err.Error(), "excerpt, date")

	require.ErrorIs(t, service.ValidateTemplate("{{nope}}"), service.ErrUnknownPlaceholder)
	require.NoError(t, service.ValidateTemplate("plain text {not a placeholder}"))
}
