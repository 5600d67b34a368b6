package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	fleet "fleetwatch/internal/fleet/domain"
)

const defaultModulesTable = "analytics_modules"

// ModuleRepository is a Postgres implementation of the analytics module
// entity store.
type ModuleRepository struct {
	db    DBTX
	table string
}

// NewModuleRepository constructs a repository.
func NewModuleRepository(db DBTX, opts ...ModuleOption) *ModuleRepository {
	repo := &ModuleRepository{db: db, table: defaultModulesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ModuleOption configures the repository.
type ModuleOption func(*ModuleRepository)

// WithModuleTable overrides the default table name.
func WithModuleTable(table string) ModuleOption {
	return func(repo *ModuleRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List loads all modules ordered by id.
func (r *ModuleRepository) List(ctx context.Context) ([]fleet.AnalyticsModule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("module repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, module_type, name, created_at
FROM %s
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
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

// Get loads a module by id.
func (r *ModuleRepository) Get(ctx context.Context, id int64) (*fleet.AnalyticsModule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("module repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, module_type, name, created_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var module fleet.AnalyticsModule
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&module.ID,
		&module.ModuleType,
		&module.Name,
		&module.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("module %d: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}
	module.CreatedAt = module.CreatedAt.UTC()
	return &module, nil
}

// Create inserts a module and returns the stored row.
func (r *ModuleRepository) Create(ctx context.Context, fields fleet.NewAnalyticsModule) (*fleet.AnalyticsModule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("module repo: nil db")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (module_type, name)
VALUES ($1, $2)
RETURNING id, module_type, name, created_at`, r.table)

	var module fleet.AnalyticsModule
	if err := r.db.QueryRowContext(ctx, query, fields.ModuleType, fields.Name).Scan(
		&module.ID,
		&module.ModuleType,
		&module.Name,
		&module.CreatedAt,
	); err != nil {
		return nil, err
	}
	module.CreatedAt = module.CreatedAt.UTC()
	return &module, nil
}

// Update applies a partial update in one atomic statement.
func (r *ModuleRepository) Update(ctx context.Context, id int64, patch fleet.AnalyticsModulePatch) (*fleet.AnalyticsModule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("module repo: nil db")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	module_type = COALESCE($2, module_type),
	name = COALESCE($3, name)
WHERE id = $1
RETURNING id, module_type, name, created_at`, r.table)

	var module fleet.AnalyticsModule
	if err := r.db.QueryRowContext(ctx, query, id, patch.ModuleType, patch.Name).Scan(
		&module.ID,
		&module.ModuleType,
		&module.Name,
		&module.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("module %d: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}
	module.CreatedAt = module.CreatedAt.UTC()
	return &module, nil
}

// Delete removes a module by id.
func (r *ModuleRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("module repo: nil db")
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
		return fmt.Errorf("module %d: %w", id, fleet.ErrNotFound)
	}
	return nil
}
