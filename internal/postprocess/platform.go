package postprocess

import (
	"strings"
	"unicode/utf8"

	"github.com/Wyvern137/hackathon/pkg/domain"
)

// Adapted is the result of fitting a post to one platform's budget.
type Adapted struct {
	Text     string
	Platform domain.Platform
	TagCount int
}

// AdaptForPlatform fits a post (body plus trailing hashtags) to the
// platform's limits: tags are capped at the platform's tag budget, the body
// is shortened to the optimal length by dropping trailing whole sentences,
// and only if the combined text still exceeds the absolute maximum is it
// hard-truncated with an ellipsis.
func AdaptForPlatform(text string, platform domain.Platform) Adapted {
	limits := platform.Limits()
	body, tags := splitTags(text)

	if len(tags) > limits.MaxTags {
		tags = tags[:limits.MaxTags]
	}

	body = shortenToSentences(body, limits.OptimalLength)

	out := AppendTags(body, tags)
	if utf8.RuneCountInString(out) > limits.MaxLength {
		runes := []rune(out)
		out = string(runes[:limits.MaxLength-3]) + "..."
	}

	return Adapted{Text: out, Platform: platform, TagCount: len(tags)}
}

// splitTags separates a post into its body and trailing hashtag words.
// Hashtags may appear anywhere; they are all collected in order.
func splitTags(text string) (string, []string) {
	var tags []string
	var bodyWords []string
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, "#") {
			tags = append(tags, word)
		} else {
			bodyWords = append(bodyWords, word)
		}
	}
	return strings.Join(bodyWords, " "), tags
}

// shortenToSentences drops trailing whole sentences until the text fits
// the budget. A single over-budget sentence is left intact; the hard cap
// in AdaptForPlatform handles it.
func shortenToSentences(text string, budget int) string {
	if utf8.RuneCountInString(text) <= budget {
		return text
	}

	sentences := splitSentences(text)
	var out strings.Builder
	for _, sentence := range sentences {
		candidate := out.String()
		if candidate != "" {
			candidate += " "
		}
		candidate += sentence
		if utf8.RuneCountInString(candidate) > budget && out.Len() > 0 {
			break
		}
		out.Reset()
		out.WriteString(candidate)
	}
	return out.String()
}

// splitSentences cuts text at sentence-final punctuation, keeping the
// punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Sentence ends at punctuation followed by a space or EOF.
			if i == len(runes)-1 || runes[i+1] == ' ' {
				sentences = append(sentences, strings.TrimSpace(current.String()))
				current.Reset()
			}
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
