package fleet

import (
	"fmt"
	"time"
)

// EventPriority grades module events.
type EventPriority string

const (
	PriorityLow      EventPriority = "LOW"
	PriorityMedium   EventPriority = "MEDIUM"
	PriorityHigh     EventPriority = "HIGH"
	PriorityCritical EventPriority = "CRITICAL"
)

// Valid reports whether the priority is known.
func (p EventPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ModuleEvent is a timestamped finding produced by an analytics module
// running against a device. EventTimestamp is when the event occurred on the
// device, distinct from row creation time.
type ModuleEvent struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	ArtifactPath   string        `json:"artifact_path"`
	Priority       EventPriority `json:"priority"`
	EventTimestamp time.Time     `json:"event_timestamp"`
	DeviceID       int64         `json:"device_id"`
	ModuleID       int64         `json:"module_id"`
}

// EntityID returns the event id.
func (e ModuleEvent) EntityID() int64 { return e.ID }

// NewModuleEvent carries the fields required to create an event.
// Priority defaults to MEDIUM when empty.
type NewModuleEvent struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	ArtifactPath   string        `json:"artifact_path"`
	Priority       EventPriority `json:"priority"`
	EventTimestamp time.Time     `json:"event_timestamp"`
	DeviceID       int64         `json:"device_id"`
	ModuleID       int64         `json:"module_id"`
}

// Validate checks create fields.
func (n NewModuleEvent) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("event: name required: %w", ErrInvalid)
	}
	if n.DeviceID <= 0 {
		return fmt.Errorf("event: device_id required: %w", ErrInvalid)
	}
	if n.ModuleID <= 0 {
		return fmt.Errorf("event: module_id required: %w", ErrInvalid)
	}
	if n.EventTimestamp.IsZero() {
		return fmt.Errorf("event: event_timestamp required: %w", ErrInvalid)
	}
	if n.Priority != "" && !n.Priority.Valid() {
		return fmt.Errorf("event: invalid priority: %w", ErrInvalid)
	}
	return nil
}

// ModuleEventPatch is a partial update. Nil fields are left untouched.
type ModuleEventPatch struct {
	Name           *string        `json:"name"`
	Description    *string        `json:"description"`
	ArtifactPath   *string        `json:"artifact_path"`
	Priority       *EventPriority `json:"priority"`
	EventTimestamp *time.Time     `json:"event_timestamp"`
}

// Validate checks patch fields that are present.
func (p ModuleEventPatch) Validate() error {
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("event: invalid priority: %w", ErrInvalid)
	}
	return nil
}
