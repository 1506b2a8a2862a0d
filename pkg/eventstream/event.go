// Package eventstream defines the transport-neutral events a pipeline run
// emits, one per item reaching a terminal outcome. Backends implement
// Publisher; the nop subpackage serves tests and disabled mode.
package eventstream

import (
	"time"

	"github.com/provtagio/provtag/pkg/metadata"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeItemProcessed is emitted when an item reaches a terminal
	// pipeline state.
	EventTypeItemProcessed = "provtag.item.processed"
)

// Outcome is the terminal state an item reached.
type Outcome string

// Item outcomes.
const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeErrored  Outcome = "errored"
)

// ItemEvent is the payload published for one processed item.
type ItemEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	Item    string          `json:"item"`
	Outcome Outcome         `json:"outcome"`
	Origin  metadata.Origin `json:"origin,omitempty"`
	Size    int64           `json:"size,omitempty"`

	// IntegrityFlagged marks a lenient-mode pass-through whose content
	// hash did not match.
	IntegrityFlagged bool `json:"integrity_flagged,omitempty"`

	// Error carries the failure message for errored items.
	Error string `json:"error,omitempty"`
}
