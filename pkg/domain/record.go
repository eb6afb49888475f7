package domain

import "time"

// ContentKind classifies a stored unit of generated content.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindImage    ContentKind = "image"
	KindPlan     ContentKind = "plan"
	KindTemplate ContentKind = "template"
	KindTeam     ContentKind = "team"
	KindABTest   ContentKind = "abtest"
	KindSeries   ContentKind = "series"
)

// ContentRecord is a persisted unit of generated content tied to an owner.
// Records are created once per completed generation and never mutated
// except to flip the Saved flag.
type ContentRecord struct {
	ID      string
	OwnerID string
	Kind    ContentKind

	// Payload is the opaque content body: generated text, an image file
	// reference, or a serialized plan/template structure.
	Payload map[string]any

	// Style records the writing style the content was generated in, when
	// applicable. Used by analytics.
	Style string

	// Tags are free-form search tags (hashtags for posts).
	Tags []string

	Saved     bool
	CreatedAt time.Time
}

// Profile describes the owning organization. It feeds prompt building and
// the rule-based tag table.
type Profile struct {
	OwnerID    string
	Name       string
	About      string
	Categories []string
	Tone       string
}
