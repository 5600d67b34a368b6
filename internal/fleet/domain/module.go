package fleet

import (
	"fmt"
	"time"
)

// ModuleType classifies an analytics module.
type ModuleType string

const (
	ModuleTypePeopleCounter ModuleType = "PEOPLE_COUNTER"
	ModuleTypeSTT           ModuleType = "STT"
)

// Valid reports whether the module type is known.
func (t ModuleType) Valid() bool {
	switch t {
	case ModuleTypePeopleCounter, ModuleTypeSTT:
		return true
	}
	return false
}

// AnalyticsModule represents a pluggable analytics capability.
type AnalyticsModule struct {
	ID         int64      `json:"id"`
	ModuleType ModuleType `json:"module_type"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
}

// EntityID returns the module id.
func (m AnalyticsModule) EntityID() int64 { return m.ID }

// NewAnalyticsModule carries the fields required to create a module.
type NewAnalyticsModule struct {
	ModuleType ModuleType `json:"module_type"`
	Name       string     `json:"name"`
}

// Validate checks create fields.
func (n NewAnalyticsModule) Validate() error {
	if !n.ModuleType.Valid() {
		return fmt.Errorf("module: invalid module_type: %w", ErrInvalid)
	}
	if n.Name == "" {
		return fmt.Errorf("module: name required: %w", ErrInvalid)
	}
	return nil
}

// AnalyticsModulePatch is a partial update. Nil fields are left untouched.
type AnalyticsModulePatch struct {
	ModuleType *ModuleType `json:"module_type"`
	Name       *string     `json:"name"`
}

// Validate checks patch fields that are present.
func (p AnalyticsModulePatch) Validate() error {
	if p.ModuleType != nil && !p.ModuleType.Valid() {
		return fmt.Errorf("module: invalid module_type: %w", ErrInvalid)
	}
	return nil
}
