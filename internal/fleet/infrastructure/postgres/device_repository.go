package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	fleet "fleetwatch/internal/fleet/domain"
)

const defaultDevicesTable = "devices"

// DeviceRepository is a Postgres implementation of the device entity store.
type DeviceRepository struct {
	db    DBTX
	table string
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDeviceTable overrides the default table name.
func WithDeviceTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List loads all devices ordered by id.
func (r *DeviceRepository) List(ctx context.Context) ([]fleet.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, device_type, name, source, additional_settings, created_at
FROM %s
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []fleet.Device{}
	for rows.Next() {
		device, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get loads a device by id.
func (r *DeviceRepository) Get(ctx context.Context, id int64) (*fleet.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, device_type, name, source, additional_settings, created_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("device %d: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}
	return device, nil
}

// Create inserts a device and returns the stored row.
func (r *DeviceRepository) Create(ctx context.Context, fields fleet.NewDevice) (*fleet.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (device_type, name, source, additional_settings)
VALUES ($1, $2, $3, $4)
RETURNING id, device_type, name, source, additional_settings, created_at`, r.table)

	device, err := scanDevice(r.db.QueryRowContext(
		ctx,
		query,
		fields.DeviceType,
		fields.Name,
		fields.Source,
		settingsArg(fields.AdditionalSettings),
	).Scan)
	if err != nil {
		return nil, err
	}
	return device, nil
}

// Update applies a partial update. The single UPDATE statement keeps the
// existence check and the mutation atomic.
func (r *DeviceRepository) Update(ctx context.Context, id int64, patch fleet.DevicePatch) (*fleet.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	device_type = COALESCE($2, device_type),
	name = COALESCE($3, name),
	source = COALESCE($4, source),
	additional_settings = COALESCE($5::jsonb, additional_settings)
WHERE id = $1
RETURNING id, device_type, name, source, additional_settings, created_at`, r.table)

	device, err := scanDevice(r.db.QueryRowContext(
		ctx,
		query,
		id,
		patch.DeviceType,
		patch.Name,
		patch.Source,
		rawMessageArg(patch.AdditionalSettings),
	).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("device %d: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}
	return device, nil
}

// Delete removes a device by id.
func (r *DeviceRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("device %d: %w", id, fleet.ErrNotFound)
	}
	return nil
}

func scanDevice(scan func(...any) error) (*fleet.Device, error) {
	var device fleet.Device
	var settings []byte
	if err := scan(
		&device.ID,
		&device.DeviceType,
		&device.Name,
		&device.Source,
		&settings,
		&device.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		device.AdditionalSettings = json.RawMessage(settings)
	}
	device.CreatedAt = device.CreatedAt.UTC()
	return &device, nil
}

func settingsArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func rawMessageArg(raw *json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return settingsArg(*raw)
}
