package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	archive "fleetwatch/internal/archive/domain"
	"fleetwatch/internal/observability/metrics"
)

// ArchiveRecords is the slice of the repository the service needs.
type ArchiveRecords interface {
	Get(ctx context.Context, id int64) (*archive.FileArchive, error)
	SetFilepath(ctx context.Context, id int64, filepath string) (*archive.FileArchive, error)
}

// Service brokers between archive records and the blob storage backend.
type Service struct {
	repo    ArchiveRecords
	storage archive.BlobStorage
	logger  *log.Logger
}

// NewService constructs an archive service.
func NewService(repo ArchiveRecords, storage archive.BlobStorage, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("archive service: nil repo")
	}
	if storage == nil {
		return nil, errors.New("archive service: nil storage")
	}
	return &Service{repo: repo, storage: storage, logger: logger}, nil
}

// Upload stores a payload for an archive record and persists its blob key.
// The key combines a fresh UUID with the original filename so repeated
// uploads never collide; the previous blob, if any, is left orphaned.
func (s *Service) Upload(ctx context.Context, archiveID int64, payload io.Reader, filename string) (*archive.FileArchive, error) {
	if _, err := s.repo.Get(ctx, archiveID); err != nil {
		return nil, err
	}

	key := uuid.New().String() + "_" + filename
	if err := s.storage.Put(ctx, key, payload); err != nil {
		return nil, fmt.Errorf("archive %d: upload: %w", archiveID, err)
	}

	record, err := s.repo.SetFilepath(ctx, archiveID, key)
	if err != nil {
		return nil, err
	}
	metrics.IncArchiveUpload()
	if s.logger != nil {
		s.logger.Printf("archive %d: uploaded %s", archiveID, key)
	}
	return record, nil
}

// DownloadLink issues a time-limited URL for the archive's blob. Fails with
// ErrNoFile when no upload happened yet. Link expiry is owned by the storage
// backend.
func (s *Service) DownloadLink(ctx context.Context, archiveID int64) (string, error) {
	record, err := s.repo.Get(ctx, archiveID)
	if err != nil {
		return "", err
	}
	if record.Filepath == nil {
		return "", fmt.Errorf("archive %d: %w", archiveID, archive.ErrNoFile)
	}
	return s.storage.PresignedURL(ctx, *record.Filepath)
}

// Download returns the archive's payload as a single-use stream together
// with its blob key. Fails with ErrNoFile when no upload happened yet and
// with ErrBlobMissing when the record survived but the blob did not.
func (s *Service) Download(ctx context.Context, archiveID int64) (io.ReadCloser, string, error) {
	record, err := s.repo.Get(ctx, archiveID)
	if err != nil {
		return nil, "", err
	}
	if record.Filepath == nil {
		return nil, "", fmt.Errorf("archive %d: %w", archiveID, archive.ErrNoFile)
	}

	data, err := s.storage.Get(ctx, *record.Filepath)
	if err != nil {
		return nil, "", fmt.Errorf("archive %d: download: %w", archiveID, err)
	}
	if data == nil {
		return nil, "", fmt.Errorf("archive %d key %s: %w", archiveID, *record.Filepath, archive.ErrBlobMissing)
	}
	metrics.IncArchiveDownload()
	return io.NopCloser(bytes.NewReader(data)), *record.Filepath, nil
}
