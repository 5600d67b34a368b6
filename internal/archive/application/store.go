package application

import (
	"context"
	"errors"

	archive "fleetwatch/internal/archive/domain"
	archiverepo "fleetwatch/internal/archive/infrastructure/postgres"
	fleet "fleetwatch/internal/fleet/domain"
)

// DeviceGetter resolves devices owned by the fleet context.
type DeviceGetter interface {
	Get(ctx context.Context, id int64) (*fleet.Device, error)
}

// Store adapts the archive repository to the shared CRUD contract. Creating
// a record requires the referenced device to exist.
type Store struct {
	repo    *archiverepo.ArchiveRepository
	devices DeviceGetter
}

// NewStore constructs an archive store.
func NewStore(repo *archiverepo.ArchiveRepository, devices DeviceGetter) (*Store, error) {
	if repo == nil {
		return nil, errors.New("archive store: nil repo")
	}
	if devices == nil {
		return nil, errors.New("archive store: nil device getter")
	}
	return &Store{repo: repo, devices: devices}, nil
}

// List loads all archive records.
func (s *Store) List(ctx context.Context) ([]archive.FileArchive, error) {
	return s.repo.List(ctx)
}

// Get loads an archive record by id.
func (s *Store) Get(ctx context.Context, id int64) (*archive.FileArchive, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts an archive record after checking the device exists.
func (s *Store) Create(ctx context.Context, fields archive.NewFileArchive) (*archive.FileArchive, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.devices.Get(ctx, fields.DeviceID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, fields)
}

// Update applies a partial update.
func (s *Store) Update(ctx context.Context, id int64, patch archive.FileArchivePatch) (*archive.FileArchive, error) {
	return s.repo.Update(ctx, id, patch)
}

// Delete removes an archive record. The blob, if any, is left behind and
// cleaned up out of band.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
