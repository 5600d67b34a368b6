package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	archiveapp "fleetwatch/internal/archive/application"
	archive "fleetwatch/internal/archive/domain"
	"fleetwatch/internal/archive/infrastructure/memory"
)

type stubRecords struct {
	records map[int64]*archive.FileArchive
}

func (s *stubRecords) Get(_ context.Context, id int64) (*archive.FileArchive, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("archive %d: %w", id, archive.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (s *stubRecords) SetFilepath(ctx context.Context, id int64, filepath string) (*archive.FileArchive, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("archive %d: %w", id, archive.ErrNotFound)
	}
	record.Filepath = &filepath
	return s.Get(ctx, id)
}

func newTestHandler(t *testing.T) (*Handler, *memory.Storage) {
	t.Helper()
	start := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	records := &stubRecords{records: map[int64]*archive.FileArchive{
		1: {ID: 1, DeviceID: 1, TimestampStart: start, TimestampEnd: start.Add(time.Hour)},
	}}
	storage := memory.NewStorage()
	service, err := archiveapp.NewService(records, storage, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler, err := NewHandler(notFound, service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, storage
}

func multipartBody(t *testing.T, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestHandler_UploadThenDownload(t *testing.T) {
	handler, storage := newTestHandler(t)
	payload := []byte("some binary data")

	body, contentType := multipartBody(t, "clip.mp4", payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/archive/1/upload/", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var record archive.FileArchive
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.Filepath == nil {
		t.Fatal("expected filepath to be set")
	}
	if storage.Len() != 1 {
		t.Fatalf("expected one blob, got %d", storage.Len())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/archive/1/download_file/", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); got == "" {
		t.Fatal("missing Content-Disposition")
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %q", data)
	}
}

func TestHandler_DownloadBeforeUpload(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive/1/download_file/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/archive/1/get_download_link/", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for link, got %d", resp.Code)
	}
}

func TestHandler_DownloadLink(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartBody(t, "clip.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/archive/1/upload/", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/archive/1/get_download_link/", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("link: expected 200, got %d", resp.Code)
	}
	var link map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		t.Fatalf("decode link: %v", err)
	}
	if link["url"] == "" {
		t.Fatal("empty link")
	}
}

func TestHandler_UnknownRecord(t *testing.T) {
	handler, _ := newTestHandler(t)

	body, contentType := multipartBody(t, "clip.mp4", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/archive/42/upload/", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandler_UploadMissingFileField(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/archive/1/upload/", bytes.NewReader(nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
