package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	fleet "fleetwatch/internal/fleet/domain"
	fleetrepo "fleetwatch/internal/fleet/infrastructure/postgres"
	"fleetwatch/internal/observability/metrics"
)

// AssociationService manages the device-module many-to-many relation.
type AssociationService struct {
	db     *sql.DB
	logger *log.Logger
}

// NewAssociationService constructs an association service.
func NewAssociationService(db *sql.DB, logger *log.Logger) (*AssociationService, error) {
	if db == nil {
		return nil, errors.New("associations: nil db")
	}
	return &AssociationService{db: db, logger: logger}, nil
}

// ListConnectedModules returns the modules connected to a device. The device
// must exist.
func (s *AssociationService) ListConnectedModules(ctx context.Context, deviceID int64) ([]fleet.AnalyticsModule, error) {
	deviceRepo := fleetrepo.NewDeviceRepository(s.db)
	if _, err := deviceRepo.Get(ctx, deviceID); err != nil {
		return nil, err
	}
	assocRepo := fleetrepo.NewAssociationRepository(s.db)
	return assocRepo.ListConnectedModules(ctx, deviceID)
}

// Connect links a device to a module. Connecting an already-connected pair
// fails with fleet.ErrConflict. The existence checks and the insert run in
// one transaction; a unique index on (device_id, module_id) backs the
// invariant against concurrent connects.
func (s *AssociationService) Connect(ctx context.Context, deviceID, moduleID int64) (*fleet.DeviceWithModules, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	deviceRepo := fleetrepo.NewDeviceRepository(tx)
	if _, err := deviceRepo.Get(ctx, deviceID); err != nil {
		return nil, err
	}
	moduleRepo := fleetrepo.NewModuleRepository(tx)
	if _, err := moduleRepo.Get(ctx, moduleID); err != nil {
		return nil, err
	}

	assocRepo := fleetrepo.NewAssociationRepository(tx)
	existing, err := assocRepo.FindPair(ctx, deviceID, moduleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("device %d module %d already connected: %w", deviceID, moduleID, fleet.ErrConflict)
	}
	if _, err := assocRepo.Insert(ctx, deviceID, moduleID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	metrics.IncModuleConnected()
	if s.logger != nil {
		s.logger.Printf("module %d connected to device %d", moduleID, deviceID)
	}

	return s.deviceWithModules(ctx, deviceID)
}

func (s *AssociationService) deviceWithModules(ctx context.Context, deviceID int64) (*fleet.DeviceWithModules, error) {
	deviceRepo := fleetrepo.NewDeviceRepository(s.db)
	device, err := deviceRepo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	assocRepo := fleetrepo.NewAssociationRepository(s.db)
	modules, err := assocRepo.ListConnectedModules(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return &fleet.DeviceWithModules{Device: *device, ConnectedModules: modules}, nil
}
