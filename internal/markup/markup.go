// Package markup converts between the rich-text (HTML) note body, plain
// text and markdown.
//
// ToMarkdown is intentionally lossy: it handles the flat markup the editor
// produces (headings, emphasis, flat lists, paragraphs, links) and drops
// everything else. Nested lists and attributes other than href are not
// preserved.
package markup

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Strip removes every tag from s and decodes entities.
func Strip(s string) string {
	if !strings.Contains(s, "<") && !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(strictPolicy().Sanitize(s))
}

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

var markdownRewrites = []rewrite{
	{regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`), "# $1\n\n"},
	{regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`), "## $1\n\n"},
	{regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`), "### $1\n\n"},
	{regexp.MustCompile(`(?is)<(?:strong|b)>(.*?)</(?:strong|b)>`), "**$1**"},
	{regexp.MustCompile(`(?is)<(?:em|i)>(.*?)</(?:em|i)>`), "*$1*"},
	{regexp.MustCompile(`(?is)<u>(.*?)</u>`), "$1"},
	{regexp.MustCompile(`(?is)<code>(.*?)</code>`), "`$1`"},
	{regexp.MustCompile(`(?is)<a[^>]*href="([^"]*)"[^>]*>(.*?)</a>`), "[$2]($1)"},
	{regexp.MustCompile(`(?is)<img[^>]*src="([^"]*)"[^>]*>`), "![]($1)"},
	{regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`), "- $1\n"},
	{regexp.MustCompile(`(?is)</?(?:ul|ol)[^>]*>`), "\n"},
	{regexp.MustCompile(`(?is)<blockquote[^>]*>(.*?)</blockquote>`), "> $1\n\n"},
	{regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`), "$1\n\n"},
	{regexp.MustCompile(`(?i)<br\s*/?>`), "\n"},
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ToMarkdown converts editor HTML into approximate markdown.
func ToMarkdown(s string) string {
	for _, rw := range markdownRewrites {
		s = rw.re.ReplaceAllString(s, rw.repl)
	}
	s = Strip(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// FromMarkdown renders markdown into HTML suitable as note content.
func FromMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Render formats markdown for a terminal of the given width using a glamour
// standard style ("dark", "light", "notty", ...). On failure the input is
// returned unchanged.
func Render(md string, width int, style string) string {
	md = strings.TrimRight(md, "\n")
	if md == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
