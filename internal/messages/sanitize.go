package messages

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user-supplied message bodies before they are persisted.
type Sanitizer interface {
	Sanitize(html string) string
}

// NewHTMLSanitizer returns the broker's content policy: a fixed allow-list
// of inline/structural tags with no attributes permitted on any tag.
func NewHTMLSanitizer() Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("ul", "ol", "b", "i", "em", "strike", "pre", "strong", "li")
	return p
}

var (
	nameStrip = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	plusS     = regexp.MustCompile(`\+s`)
)

// CleanDisplayName applies the display-name rule: strip characters outside
// [A-Za-z0-9\s-], trim, then replace literal "+s" sequences with "-". The
// last step is carried over verbatim from the original rule even though the
// strip pass already removes "+"; it is deliberately not generalized into a
// slugifier.
func CleanDisplayName(name string) string {
	out := nameStrip.ReplaceAllString(name, "")
	out = strings.TrimSpace(out)
	return plusS.ReplaceAllString(out, "-")
}
