package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	fleet "fleetwatch/internal/fleet/domain"
)

const defaultEventsTable = "module_events"

// EventRepository is a Postgres implementation of the module event entity
// store.
type EventRepository struct {
	db    DBTX
	table string
}

// NewEventRepository constructs a repository.
func NewEventRepository(db DBTX, opts ...EventOption) *EventRepository {
	repo := &EventRepository{db: db, table: defaultEventsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EventOption configures the repository.
type EventOption func(*EventRepository)

// WithEventTable overrides the default table name.
func WithEventTable(table string) EventOption {
	return func(repo *EventRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List loads all events ordered by id.
func (r *EventRepository) List(ctx context.Context) ([]fleet.ModuleEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, description, artifact_path, priority, event_timestamp, device_id, module_id
FROM %s
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []fleet.ModuleEvent{}
	for rows.Next() {
		var event fleet.ModuleEvent
		if err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Description,
			&event.ArtifactPath,
			&event.Priority,
			&event.EventTimestamp,
			&event.DeviceID,
			&event.ModuleID,
		); err != nil {
			return nil, err
		}
		event.EventTimestamp = event.EventTimestamp.UTC()
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get loads an event by id.
func (r *EventRepository) Get(ctx context.Context, id int64) (*fleet.ModuleEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, name, description, artifact_path, priority, event_timestamp, device_id, module_id
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var event fleet.ModuleEvent
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.ArtifactPath,
		&event.Priority,
		&event.EventTimestamp,
		&event.DeviceID,
		&event.ModuleID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}
	event.EventTimestamp = event.EventTimestamp.UTC()
	return &event, nil
}

// Create inserts an event and returns the stored row. Priority defaults to
// MEDIUM when unset.
func (r *EventRepository) Create(ctx context.Context, fields fleet.NewModuleEvent) (*fleet.ModuleEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if fields.Priority == "" {
		fields.Priority = fleet.PriorityMedium
	}

	query := fmt.Sprintf(`
INSERT INTO %s (name, description, artifact_path, priority, event_timestamp, device_id, module_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, name, description, artifact_path, priority, event_timestamp, device_id, module_id`, r.table)

	var event fleet.ModuleEvent
	if err := r.db.QueryRowContext(
		ctx,
		query,
		fields.Name,
		fields.Description,
		fields.ArtifactPath,
		fields.Priority,
		fields.EventTimestamp.UTC(),
		fields.DeviceID,
		fields.ModuleID,
	).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.ArtifactPath,
		&event.Priority,
		&event.EventTimestamp,
		&event.DeviceID,
		&event.ModuleID,
	); err != nil {
		return nil, err
	}
	event.EventTimestamp = event.EventTimestamp.UTC()
	return &event, nil
}

// Update applies a partial update in one atomic statement.
func (r *EventRepository) Update(ctx context.Context, id int64, patch fleet.ModuleEventPatch) (*fleet.ModuleEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	name = COALESCE($2, name),
	description = COALESCE($3, description),
	artifact_path = COALESCE($4, artifact_path),
	priority = COALESCE($5, priority),
	event_timestamp = COALESCE($6, event_timestamp)
WHERE id = $1
RETURNING id, name, description, artifact_path, priority, event_timestamp, device_id, module_id`, r.table)

	var event fleet.ModuleEvent
	if err := r.db.QueryRowContext(
		ctx,
		query,
		id,
		patch.Name,
		patch.Description,
		patch.ArtifactPath,
		patch.Priority,
		patch.EventTimestamp,
	).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.ArtifactPath,
		&event.Priority,
		&event.EventTimestamp,
		&event.DeviceID,
		&event.ModuleID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}
	event.EventTimestamp = event.EventTimestamp.UTC()
	return &event, nil
}

// Delete removes an event by id.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("event repo: nil db")
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
		return fmt.Errorf("event %d: %w", id, fleet.ErrNotFound)
	}
	return nil
}
