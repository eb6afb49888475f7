// Package postprocess turns raw generated text into a publish-ready post:
// paragraph reflow, tag generation and appending, and platform-length
// adaptation. Every step is a pure function of its input; only tag
// generation may optionally call the generation facade.
package postprocess

import "strings"

// Reflow normalizes line endings, joins intra-paragraph line breaks into
// single space-separated lines, and separates paragraphs by exactly one
// blank line. Reflowing already-reflowed text yields the same text.
func Reflow(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}

	return strings.Join(paragraphs, "\n\n")
}

// AppendTags appends the tag list after a blank line. Empty tag lists
// leave the text untouched.
func AppendTags(text string, tags []string) string {
	if len(tags) == 0 {
		return text
	}
	return text + "\n\n" + strings.Join(tags, " ")
}
