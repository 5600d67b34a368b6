package fleet

import (
	"encoding/json"
	"fmt"
	"time"
)

// DeviceType classifies a monitoring device.
type DeviceType string

const (
	DeviceTypeCamera     DeviceType = "CAMERA"
	DeviceTypeMicrophone DeviceType = "MICROPHONE"
)

// Valid reports whether the device type is known.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeCamera, DeviceTypeMicrophone:
		return true
	}
	return false
}

// Device represents a monitoring device in the fleet.
type Device struct {
	ID                 int64           `json:"id"`
	DeviceType         DeviceType      `json:"device_type"`
	Name               string          `json:"name"`
	Source             string          `json:"source"`
	AdditionalSettings json.RawMessage `json:"additional_settings"`
	CreatedAt          time.Time       `json:"created_at"`
}

// EntityID returns the device id.
func (d Device) EntityID() int64 { return d.ID }

// NewDevice carries the fields required to create a device.
type NewDevice struct {
	DeviceType         DeviceType      `json:"device_type"`
	Name               string          `json:"name"`
	Source             string          `json:"source"`
	AdditionalSettings json.RawMessage `json:"additional_settings"`
}

// Validate checks create fields.
func (n NewDevice) Validate() error {
	if !n.DeviceType.Valid() {
		return fmt.Errorf("device: invalid device_type: %w", ErrInvalid)
	}
	if n.Name == "" {
		return fmt.Errorf("device: name required: %w", ErrInvalid)
	}
	if n.Source == "" {
		return fmt.Errorf("device: source required: %w", ErrInvalid)
	}
	if len(n.AdditionalSettings) > 0 && !json.Valid(n.AdditionalSettings) {
		return fmt.Errorf("device: additional_settings must be valid JSON: %w", ErrInvalid)
	}
	return nil
}

// DevicePatch is a partial update. Nil fields are left untouched; a non-nil
// pointer to a zero value is applied.
type DevicePatch struct {
	DeviceType         *DeviceType      `json:"device_type"`
	Name               *string          `json:"name"`
	Source             *string          `json:"source"`
	AdditionalSettings *json.RawMessage `json:"additional_settings"`
}

// Validate checks patch fields that are present.
func (p DevicePatch) Validate() error {
	if p.DeviceType != nil && !p.DeviceType.Valid() {
		return fmt.Errorf("device: invalid device_type: %w", ErrInvalid)
	}
	if p.AdditionalSettings != nil && len(*p.AdditionalSettings) > 0 && !json.Valid(*p.AdditionalSettings) {
		return fmt.Errorf("device: additional_settings must be valid JSON: %w", ErrInvalid)
	}
	return nil
}

// DeviceWithModules is a device together with its connected analytics modules.
type DeviceWithModules struct {
	Device
	ConnectedModules []AnalyticsModule `json:"connected_modules"`
}
