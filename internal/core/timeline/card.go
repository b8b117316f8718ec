package timeline

import (
	"strings"

	"github.com/botscope/botscope/internal/core/model"
)

const (
	cardTextFragments = 2
	cardTextMaxLen    = 150
	// Cards are attacker-supplied JSON; cap the tree walk so malformed
	// nesting cannot recurse unboundedly.
	cardMaxDepth = 16
)

// ExtractCardText pulls up to two readable text fragments out of Adaptive
// Card attachments, walking container/column/body nesting depth-first.
// Returns a placeholder when no text is extractable at all.
func ExtractCardText(attachments []model.Attachment) string {
	var texts []string

	for _, att := range attachments {
		if len(texts) >= cardTextFragments {
			break
		}
		texts = collectCardText(att.Content.Body, texts, 0)
	}

	if len(texts) == 0 {
		return "[Adaptive Card]"
	}

	combined := strings.Join(texts, " | ")
	if clipped, ok := capRunes(combined, cardTextMaxLen); ok {
		return clipped + "..."
	}
	return combined
}

func collectCardText(elements []model.CardElement, texts []string, depth int) []string {
	if depth > cardMaxDepth {
		return texts
	}

	for _, el := range elements {
		if len(texts) >= cardTextFragments {
			return texts
		}
		if el.Type == "TextBlock" && el.Text != "" {
			texts = append(texts, el.Text)
		}
		texts = collectCardText(el.Items, texts, depth+1)
		texts = collectCardText(el.Columns, texts, depth+1)
		texts = collectCardText(el.Body, texts, depth+1)
	}
	return texts
}
