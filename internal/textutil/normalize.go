package textutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern          = regexp.MustCompile(`<[^>]*>`)
)

// RemoveLinks strips markdown links (keeping the anchor text) and bare URLs.
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// Normalize produces the canonical comment body stored in the database:
// markdown rendered to plain text, links removed, whitespace collapsed to
// single spaces, lowercased, no leading or trailing space. Idempotent.
// Entities are decoded before the markdown pass: source APIs deliver bodies
// entity-escaped, and a `&gt;` quote marker must be consumed as a blockquote
// on the first pass, not surface as a bare `>` for a later one.
func Normalize(input string) string {
	decoded := html.UnescapeString(input)
	rendered := blackfriday.Run([]byte(decoded), blackfriday.WithNoExtensions())
	plain := tagPattern.ReplaceAllString(string(rendered), " ")
	plain = html.UnescapeString(plain)
	plain = RemoveLinks(plain)
	plain = strings.Join(strings.Fields(plain), " ")
	return strings.ToLower(plain)
}
