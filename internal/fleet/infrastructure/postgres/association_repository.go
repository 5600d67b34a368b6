package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	fleet "fleetwatch/internal/fleet/domain"
)

const (
	defaultAssociationsTable = "module_device_associations"
)

// AssociationRepository is a Postgres implementation for device-module
// associations.
type AssociationRepository struct {
	db           DBTX
	table        string
	modulesTable string
}

// NewAssociationRepository constructs a repository.
func NewAssociationRepository(db DBTX, opts ...AssociationOption) *AssociationRepository {
	repo := &AssociationRepository{
		db:           db,
		table:        defaultAssociationsTable,
		modulesTable: defaultModulesTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AssociationOption configures the repository.
type AssociationOption func(*AssociationRepository)

// WithAssociationTable overrides the default association table name.
func WithAssociationTable(table string) AssociationOption {
	return func(repo *AssociationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// FindPair loads the association for an exact (device, module) pair, or nil
// when none exists.
func (r *AssociationRepository) FindPair(ctx context.Context, deviceID, moduleID int64) (*fleet.ModuleAssociation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("association repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, device_id, module_id
FROM %s
WHERE device_id = $1 AND module_id = $2
LIMIT 1`, r.table)

	var assoc fleet.ModuleAssociation
	if err := r.db.QueryRowContext(ctx, query, deviceID, moduleID).Scan(
		&assoc.ID,
		&assoc.DeviceID,
		&assoc.ModuleID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &assoc, nil
}

// Insert creates an association row.
func (r *AssociationRepository) Insert(ctx context.Context, deviceID, moduleID int64) (*fleet.ModuleAssociation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("association repo: nil db")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (device_id, module_id)
VALUES ($1, $2)
RETURNING id, device_id, module_id`, r.table)

	var assoc fleet.ModuleAssociation
	if err := r.db.QueryRowContext(ctx, query, deviceID, moduleID).Scan(
		&assoc.ID,
		&assoc.DeviceID,
		&assoc.ModuleID,
	); err != nil {
		return nil, err
	}
	return &assoc, nil
}

// ListConnectedModules loads the modules connected to a device by joining
// the association table.
func (r *AssociationRepository) ListConnectedModules(ctx context.Context, deviceID int64) ([]fleet.AnalyticsModule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("association repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT m.id, m.module_type, m.name, m.created_at
FROM %s m
JOIN %s a ON a.module_id = m.id
WHERE a.device_id = $1`, r.modulesTable, r.table)

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []fleet.AnalyticsModule{}
	for rows.Next() {
		var module fleet.AnalyticsModule
		if err := rows.Scan(&module.ID, &module.ModuleType, &module.Name, &module.CreatedAt); err != nil {
			return nil, err
		}
		module.CreatedAt = module.CreatedAt.UTC()
		result = append(result, module)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
