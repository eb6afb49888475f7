package ports

import "context"

// Button is one inline keyboard button. Data is the callback payload the
// transport echoes back when the button is pressed.
type Button struct {
	Label string
	Data  string
}

// Message is outbound chat content. Buttons are laid out row by row.
type Message struct {
	Text    string
	Buttons [][]Button
}

// Transport delivers messages to a chat and fetches transport-managed
// files. Delivery, retry and per-chat ordering are the transport's
// responsibility, not the core's.
type Transport interface {
	// Send delivers a message and returns a transport message id usable
	// with Edit.
	Send(ctx context.Context, chatID string, msg Message) (string, error)

	// Edit replaces the content of a previously sent message.
	Edit(ctx context.Context, chatID, messageID string, msg Message) error

	// Download fetches the bytes behind a file reference.
	Download(ctx context.Context, fileRef string) ([]byte, error)
}

// Transcriber converts a voice file into text. The transcript re-enters
// the engine as an ordinary text event.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
