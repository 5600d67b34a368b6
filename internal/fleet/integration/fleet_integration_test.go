package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	archiverepo "fleetwatch/internal/archive/infrastructure/postgres"
	fleetapp "fleetwatch/internal/fleet/application"
	fleet "fleetwatch/internal/fleet/domain"
	fleetrepo "fleetwatch/internal/fleet/infrastructure/postgres"

	archive "fleetwatch/internal/archive/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := applyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	for _, table := range []string{
		"module_device_associations",
		"module_events",
		"device_file_archives",
		"analytics_modules",
		"devices",
	} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
	return db
}

func applyMigrations(db *sql.DB) error {
	content, err := os.ReadFile(filepath.Join(projectRoot(), "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(content))
	return err
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}

func TestDeviceRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := fleetrepo.NewDeviceRepository(db)

	created, err := repo.Create(ctx, fleet.NewDevice{
		DeviceType:         fleet.DeviceTypeCamera,
		Name:               "cam-lobby",
		Source:             "rtsp://lobby",
		AdditionalSettings: []byte(`{"fps":25}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("missing generated fields: %+v", created)
	}

	loaded, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Name != "cam-lobby" || string(loaded.AdditionalSettings) == "" {
		t.Fatalf("unexpected device %+v", loaded)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one device, got %d", len(list))
	}

	newName := "cam-entrance"
	updated, err := repo.Update(ctx, created.ID, fleet.DevicePatch{Name: &newName})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("name not updated: %+v", updated)
	}
	if updated.Source != "rtsp://lobby" {
		t.Fatalf("omitted field clobbered: %+v", updated)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestEventRepository_DefaultPriority(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := fleetrepo.NewEventRepository(db)

	created, err := repo.Create(ctx, fleet.NewModuleEvent{
		Name:           "person detected",
		EventTimestamp: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		DeviceID:       1,
		ModuleID:       1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != fleet.PriorityMedium {
		t.Fatalf("expected MEDIUM default, got %s", created.Priority)
	}
}

func TestAssociationService_ConnectAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	logger := log.New(os.Stdout, "", 0)

	deviceRepo := fleetrepo.NewDeviceRepository(db)
	moduleRepo := fleetrepo.NewModuleRepository(db)

	device, err := deviceRepo.Create(ctx, fleet.NewDevice{
		DeviceType: fleet.DeviceTypeMicrophone,
		Name:       "mic-hall",
		Source:     "rtsp://hall",
	})
	if err != nil {
		t.Fatalf("create device: %v", err)
	}
	module, err := moduleRepo.Create(ctx, fleet.NewAnalyticsModule{
		ModuleType: fleet.ModuleTypeSTT,
		Name:       "transcriber",
	})
	if err != nil {
		t.Fatalf("create module: %v", err)
	}

	service, err := fleetapp.NewAssociationService(db, logger)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	connected, err := service.Connect(ctx, device.ID, module.ID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if len(connected.ConnectedModules) != 1 || connected.ConnectedModules[0].ID != module.ID {
		t.Fatalf("unexpected connected modules %+v", connected.ConnectedModules)
	}

	if _, err := service.Connect(ctx, device.ID, module.ID); !errors.Is(err, fleet.ErrConflict) {
		t.Fatalf("expected ErrConflict on repeat connect, got %v", err)
	}

	modules, err := service.ListConnectedModules(ctx, device.ID)
	if err != nil {
		t.Fatalf("list connected: %v", err)
	}
	if len(modules) != 1 {
		t.Fatalf("expected one module, got %d", len(modules))
	}

	if _, err := service.Connect(ctx, device.ID, module.ID+999); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing module, got %v", err)
	}
	if _, err := service.ListConnectedModules(ctx, device.ID+999); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing device, got %v", err)
	}
}

func TestArchiveRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := archiverepo.NewArchiveRepository(db)

	start := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, archive.NewFileArchive{
		DeviceID:       1,
		TimestampStart: start,
		TimestampEnd:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Filepath != nil {
		t.Fatalf("fresh record should have no filepath: %+v", created)
	}

	withFile, err := repo.SetFilepath(ctx, created.ID, "abc_clip.mp4")
	if err != nil {
		t.Fatalf("set filepath: %v", err)
	}
	if withFile.Filepath == nil || *withFile.Filepath != "abc_clip.mp4" {
		t.Fatalf("filepath not persisted: %+v", withFile)
	}

	deleted := true
	updated, err := repo.Update(ctx, created.ID, archive.FileArchivePatch{IsDeleted: &deleted})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsDeleted {
		t.Fatalf("is_deleted not applied: %+v", updated)
	}
	if !updated.TimestampStart.Equal(start) {
		t.Fatalf("omitted timestamp clobbered: %+v", updated)
	}

	if _, err := repo.Get(ctx, created.ID+999); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
