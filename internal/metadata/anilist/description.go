package anilist

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Markdown constructs html-to-markdown emits, replaced in order.
var markdownRules = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`(?m)^[ \t]*(?:#{1,6}|>|[-*+])[ \t]+`), ""},
	{regexp.MustCompile(`\*\*(\S(?:.*?\S)?)\*\*`), "$1"},
	{regexp.MustCompile(`__(\S(?:.*?\S)?)__`), "$1"},
	{regexp.MustCompile(`\*([^\s*](?:[^*]*?[^\s*\\])?)\*`), "$1"},
	{regexp.MustCompile(`(^|\W)_([^\s_](?:[^_]*?[^\s_\\])?)_(\W|$)`), "$1$2$3"},
	{regexp.MustCompile(`\\([\\*_\[\]()#>+\-.!])`), "$1"},
}

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// descriptionToMarkdown converts the catalog's HTML synopsis to Markdown.
// Plain text is returned unchanged; a failed conversion keeps the original.
func descriptionToMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !containsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// PlainText reduces a synopsis, Markdown or HTML, to a single line of text
// for tooltips and other places that cannot render markup.
func PlainText(s string) string {
	if s == "" {
		return ""
	}

	text := s
	if doc, err := html.Parse(strings.NewReader(s)); err == nil {
		var buf strings.Builder
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				buf.WriteString(n.Data)
			}
			if n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p") {
				buf.WriteByte('\n')
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
		text = buf.String()
	}

	for _, rule := range markdownRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
