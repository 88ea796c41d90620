package text

import (
	"html"
	"regexp"
	"strings"
)

var (
	// Elements whose content is never visible text.
	invisibleElements = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}

	blockBoundary = regexp.MustCompile(`(?i)</?(p|div|section|article|header|footer|nav|aside|main|h[1-6]|li|ul|ol|tr|table|blockquote|pre)[^>]*>|<(br|hr)\s*/?>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	spaceRun      = regexp.MustCompile(`[ \t\f\v]+`)
)

// StripHTML reduces an HTML document to its visible text, one block per line.
func StripHTML(content string) string {
	for _, re := range invisibleElements {
		content = re.ReplaceAllString(content, "")
	}
	content = blockBoundary.ReplaceAllString(content, "\n")
	content = anyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
