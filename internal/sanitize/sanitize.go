// Package sanitize turns scraped text and markup into clean plain text.
package sanitize

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

// noiseSelectors are removed before text extraction: job-board "show more"
// controls, ad containers and page chrome.
var noiseSelectors = strings.Join([]string{
	".show-more-less-html__button",
	".ad-banner-container",
	"script", "style", "noscript", "nav", "svg", "button", "header", "footer",
}, ", ")

var strict = bluemonday.StrictPolicy()

// Plain removes invisible code points, collapses whitespace runs to a single
// space and trims. Plain(Plain(s)) == Plain(s) for every s.
func Plain(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Title is Plain plus removal of emoji and other pictographic symbols that
// job boards put in headlines. Programming punctuation (C++, C#, .NET) stays.
func Title(text string) string {
	s := Plain(text)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isPictographic(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return Plain(b.String())
}

// Markup extracts plain text from an HTML fragment or page. Noise regions are
// dropped and text nodes are joined with a space. It never panics: input the
// parser cannot handle is stripped with a strict sanitizer policy instead.
func Markup(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	text, err := extractText(markup)
	if err != nil {
		return Plain(fallbackText(markup))
	}
	return Plain(text)
}

func extractText(markup string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract text: %v", r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	doc.Find(noiseSelectors).Remove()

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, " "), nil
}

func collectText(n *nethtml.Node, parts *[]string) {
	if n.Type == nethtml.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	if n.Type == nethtml.CommentNode {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// fallbackText strips every tag. Tags are padded with a space first so that
// adjacent blocks do not run together.
func fallbackText(markup string) string {
	padded := strings.ReplaceAll(markup, "<", " <")
	return html.UnescapeString(strict.Sanitize(padded))
}

func isInvisible(r rune) bool {
	if r == utf8.RuneError {
		return true
	}
	if unicode.Is(unicode.Cf, r) {
		return true
	}
	return unicode.IsControl(r) && !unicode.IsSpace(r)
}

func isPictographic(r rune) bool {
	switch {
	case unicode.Is(unicode.So, r), unicode.Is(unicode.Sk, r):
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x20E3: // combining keycap
		return true
	}
	return false
}
