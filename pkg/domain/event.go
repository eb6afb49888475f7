package domain

// EventKind identifies the transport-level shape of an incoming update.
type EventKind string

const (
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
	EventVoice    EventKind = "voice"
	EventPhoto    EventKind = "photo"
	EventDocument EventKind = "document"
)

// Event is a single inbound update, already tagged with a stable user and
// chat identity by the transport collaborator. The transport guarantees
// per-chat ordering; the engine additionally serializes per user.
type Event struct {
	Kind   EventKind
	UserID string
	ChatID string

	// Text carries the message body for text events and the transcript
	// for voice events once the transcriber has run.
	Text string

	// Data carries the callback payload for button presses (e.g. "style_friendly").
	Data string

	// FileRef points at transport-managed bytes for voice/photo/document events.
	FileRef string
}

// IsText reports whether the event carries free text the arbiter may
// match against menu labels.
func (e Event) IsText() bool {
	return e.Kind == EventText
}

// TextEvent builds a plain text event.
func TextEvent(userID, chatID, text string) Event {
	return Event{Kind: EventText, UserID: userID, ChatID: chatID, Text: text}
}

// CallbackEvent builds a button-callback event.
func CallbackEvent(userID, chatID, data string) Event {
	return Event{Kind: EventCallback, UserID: userID, ChatID: chatID, Data: data}
}
