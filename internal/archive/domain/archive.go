package archive

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a missing archive record.
var ErrNotFound = errors.New("archive: not found")

// ErrNoFile indicates an archive record that has no uploaded content yet.
// Distinct from ErrNotFound: the record exists but lacks a precondition.
var ErrNoFile = errors.New("archive: no file uploaded")

// ErrBlobMissing indicates the record points at a blob the storage backend
// no longer holds.
var ErrBlobMissing = errors.New("archive: file missing in storage")

// ErrInvalid indicates a payload that fails validation.
var ErrInvalid = errors.New("archive: invalid")

// FileArchive ties a stored media file to a half-open time range
// [TimestampStart, TimestampEnd) on a device. Filepath is the blob key and
// is set only after a successful upload.
type FileArchive struct {
	ID             int64     `json:"id"`
	DeviceID       int64     `json:"device_id"`
	Filepath       *string   `json:"filepath"`
	IsDeleted      bool      `json:"is_deleted"`
	TimestampStart time.Time `json:"timestamp_start"`
	TimestampEnd   time.Time `json:"timestamp_end"`
}

// EntityID returns the archive record id.
func (f FileArchive) EntityID() int64 { return f.ID }

// NewFileArchive carries the fields required to create an archive record.
type NewFileArchive struct {
	DeviceID       int64     `json:"device_id"`
	TimestampStart time.Time `json:"timestamp_start"`
	TimestampEnd   time.Time `json:"timestamp_end"`
}

// Validate checks create fields.
func (n NewFileArchive) Validate() error {
	if n.DeviceID <= 0 {
		return fmt.Errorf("archive: device_id required: %w", ErrInvalid)
	}
	if n.TimestampStart.IsZero() || n.TimestampEnd.IsZero() {
		return fmt.Errorf("archive: timestamp range required: %w", ErrInvalid)
	}
	if !n.TimestampEnd.After(n.TimestampStart) {
		return fmt.Errorf("archive: timestamp_end must be after timestamp_start: %w", ErrInvalid)
	}
	return nil
}

// FileArchivePatch is a partial update. Nil fields are left untouched.
type FileArchivePatch struct {
	IsDeleted      *bool      `json:"is_deleted"`
	TimestampStart *time.Time `json:"timestamp_start"`
	TimestampEnd   *time.Time `json:"timestamp_end"`
}
