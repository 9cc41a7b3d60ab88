// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EventKind discriminates progress events on a run's stream.
type EventKind string

const (
	EventStatus        EventKind = "status"
	EventThought       EventKind = "thought"
	EventPhaseComplete EventKind = "phase_complete"
	EventError         EventKind = "error"
)

// ProgressEvent is one entry on a run's ordered event stream. Events for a
// single run are strictly ordered by Step.
type ProgressEvent struct {
	// Stage names the pipeline stage that emitted the event.
	Stage string `json:"stage"`

	// Step is the run-wide monotonic sequence number.
	Step int `json:"step"`

	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`

	// Payload is an optional structured record specific to the stage, for
	// example the quality verdict for the triage stage.
	Payload any `json:"payload,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
