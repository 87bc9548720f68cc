package detect

import (
	"strings"

	"github.com/a11ykit/pdfa11y/ir/semantic"
)

// LinkFinding flags an element with uninformative link text.
type LinkFinding struct {
	Element    *semantic.Element
	Reason     string
	Confidence float64
}

// BadLinkPhrases are generic phrases that say nothing out of context.
// An exact match, or a prefix ending at a word boundary, flags the element.
var BadLinkPhrases = []string{
	"click here",
	"here",
	"read more",
	"more",
	"link",
	"this link",
	"learn more",
}

const maxBareURLLength = 100

// Links flags elements whose text is a generic phrase (confidence 0.8) or a
// short bare URL (confidence 0.6). Phrase matches take precedence; an
// element is reported at most once.
func Links(page *semantic.Page) []LinkFinding {
	var out []LinkFinding
	for _, el := range page.Elements {
		if el.Kind != semantic.KindText {
			continue
		}
		text := strings.ToLower(strings.TrimSpace(el.Text))
		if text == "" {
			continue
		}
		if phrase, ok := matchBadPhrase(text); ok {
			out = append(out, LinkFinding{
				Element:    el,
				Reason:     "generic link text " + strings.TrimSpace(`"`+phrase+`"`),
				Confidence: 0.8,
			})
			continue
		}
		if looksLikeURL(text) && len(text) < maxBareURLLength {
			out = append(out, LinkFinding{
				Element:    el,
				Reason:     "bare URL used as link text",
				Confidence: 0.6,
			})
		}
	}
	return out
}

func matchBadPhrase(text string) (string, bool) {
	for _, phrase := range BadLinkPhrases {
		// The prefix must end at a word boundary so that words which
		// merely begin with a phrase ("hereby", "moreover") pass.
		if text == phrase || strings.HasPrefix(text, phrase+" ") {
			return phrase, true
		}
	}
	return "", false
}

func looksLikeURL(text string) bool {
	return strings.Contains(text, "http://") ||
		strings.Contains(text, "https://") ||
		strings.Contains(text, "www.")
}
