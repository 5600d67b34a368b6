package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	archive "fleetwatch/internal/archive/domain"
)

const defaultArchivesTable = "device_file_archives"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ArchiveRepository is a Postgres implementation of the file archive entity
// store.
type ArchiveRepository struct {
	db    DBTX
	table string
}

// NewArchiveRepository constructs a repository.
func NewArchiveRepository(db DBTX, opts ...ArchiveOption) *ArchiveRepository {
	repo := &ArchiveRepository{db: db, table: defaultArchivesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ArchiveOption configures the repository.
type ArchiveOption func(*ArchiveRepository)

// WithArchiveTable overrides the default table name.
func WithArchiveTable(table string) ArchiveOption {
	return func(repo *ArchiveRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List loads all archive records ordered by id.
func (r *ArchiveRepository) List(ctx context.Context) ([]archive.FileArchive, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("archive repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, device_id, filepath, is_deleted, timestamp_start, timestamp_end
FROM %s
ORDER BY id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []archive.FileArchive{}
	for rows.Next() {
		record, err := scanArchive(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get loads an archive record by id.
func (r *ArchiveRepository) Get(ctx context.Context, id int64) (*archive.FileArchive, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("archive repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, device_id, filepath, is_deleted, timestamp_start, timestamp_end
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	record, err := scanArchive(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("archive %d: %w", id, archive.ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

// Create inserts an archive record with no filepath yet.
func (r *ArchiveRepository) Create(ctx context.Context, fields archive.NewFileArchive) (*archive.FileArchive, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("archive repo: nil db")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (device_id, timestamp_start, timestamp_end)
VALUES ($1, $2, $3)
RETURNING id, device_id, filepath, is_deleted, timestamp_start, timestamp_end`, r.table)

	record, err := scanArchive(r.db.QueryRowContext(
		ctx,
		query,
		fields.DeviceID,
		fields.TimestampStart.UTC(),
		fields.TimestampEnd.UTC(),
	).Scan)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update applies a partial update in one atomic statement.
func (r *ArchiveRepository) Update(ctx context.Context, id int64, patch archive.FileArchivePatch) (*archive.FileArchive, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("archive repo: nil db")
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	is_deleted = COALESCE($2, is_deleted),
	timestamp_start = COALESCE($3, timestamp_start),
	timestamp_end = COALESCE($4, timestamp_end)
WHERE id = $1
RETURNING id, device_id, filepath, is_deleted, timestamp_start, timestamp_end`, r.table)

	record, err := scanArchive(r.db.QueryRowContext(
		ctx,
		query,
		id,
		patch.IsDeleted,
		patch.TimestampStart,
		patch.TimestampEnd,
	).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("archive %d: %w", id, archive.ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

// SetFilepath records the blob key after a successful upload.
func (r *ArchiveRepository) SetFilepath(ctx context.Context, id int64, filepath string) (*archive.FileArchive, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("archive repo: nil db")
	}

	query := fmt.Sprintf(`
UPDATE %s SET filepath = $2
WHERE id = $1
RETURNING id, device_id, filepath, is_deleted, timestamp_start, timestamp_end`, r.table)

	record, err := scanArchive(r.db.QueryRowContext(ctx, query, id, filepath).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("archive %d: %w", id, archive.ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

// Delete removes an archive record by id.
func (r *ArchiveRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("archive repo: nil db")
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
		return fmt.Errorf("archive %d: %w", id, archive.ErrNotFound)
	}
	return nil
}

func scanArchive(scan func(...any) error) (*archive.FileArchive, error) {
	var record archive.FileArchive
	var filepath sql.NullString
	if err := scan(
		&record.ID,
		&record.DeviceID,
		&filepath,
		&record.IsDeleted,
		&record.TimestampStart,
		&record.TimestampEnd,
	); err != nil {
		return nil, err
	}
	if filepath.Valid {
		value := filepath.String
		record.Filepath = &value
	}
	record.TimestampStart = record.TimestampStart.UTC()
	record.TimestampEnd = record.TimestampEnd.UTC()
	return &record, nil
}
