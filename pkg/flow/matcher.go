package flow

import (
	"strings"

	"github.com/Wyvern137/hackathon/pkg/domain"
)

// Matcher decides whether an event triggers a binding. Within a state,
// bindings are declared with the most specific matchers first: exact
// callback patterns before prefix patterns before AnyText.
type Matcher func(domain.Event) bool

// OnCallback matches a button callback with exactly this payload.
func OnCallback(data string) Matcher {
	return func(e domain.Event) bool {
		return e.Kind == domain.EventCallback && e.Data == data
	}
}

// OnCallbackPrefix matches button callbacks whose payload starts with the
// prefix (e.g. "style_" for the style keyboard).
func OnCallbackPrefix(prefix string) Matcher {
	return func(e domain.Event) bool {
		return e.Kind == domain.EventCallback && strings.HasPrefix(e.Data, prefix)
	}
}

// AnyText matches any plain text message.
func AnyText() Matcher {
	return func(e domain.Event) bool {
		return e.Kind == domain.EventText
	}
}

// OnTextLabel matches a text message equal to the label after trimming.
func OnTextLabel(label string) Matcher {
	return func(e domain.Event) bool {
		return e.Kind == domain.EventText && strings.TrimSpace(e.Text) == label
	}
}

// OnVoice matches voice events (already transcribed or not).
func OnVoice() Matcher {
	return func(e domain.Event) bool {
		return e.Kind == domain.EventVoice
	}
}

// OnPhoto matches photo events.
func OnPhoto() Matcher {
	return func(e domain.Event) bool {
		return e.Kind == domain.EventPhoto
	}
}

// Any matches when any of the given matchers does.
func Any(matchers ...Matcher) Matcher {
	return func(e domain.Event) bool {
		for _, m := range matchers {
			if m(e) {
				return true
			}
		}
		return false
	}
}
