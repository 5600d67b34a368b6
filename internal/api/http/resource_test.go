package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var errNoteNotFound = errors.New("note not found")

type note struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type newNote struct {
	Text string `json:"text"`
}

type notePatch struct {
	Text *string `json:"text"`
}

type noteStore struct {
	nextID int64
	notes  map[int64]note
}

func newNoteStore() *noteStore {
	return &noteStore{nextID: 1, notes: map[int64]note{}}
}

func (s *noteStore) List(context.Context) ([]note, error) {
	result := []note{}
	for id := int64(1); id < s.nextID; id++ {
		if n, ok := s.notes[id]; ok {
			result = append(result, n)
		}
	}
	return result, nil
}

func (s *noteStore) Get(_ context.Context, id int64) (*note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %d: %w", id, errNoteNotFound)
	}
	return &n, nil
}

func (s *noteStore) Create(_ context.Context, fields newNote) (*note, error) {
	n := note{ID: s.nextID, Text: fields.Text}
	s.notes[n.ID] = n
	s.nextID++
	return &n, nil
}

func (s *noteStore) Update(_ context.Context, id int64, patch notePatch) (*note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %d: %w", id, errNoteNotFound)
	}
	if patch.Text != nil {
		n.Text = *patch.Text
	}
	s.notes[id] = n
	return &n, nil
}

func (s *noteStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("note %d: %w", id, errNoteNotFound)
	}
	delete(s.notes, id)
	return nil
}

func noteStatus(err error) int {
	if errors.Is(err, errNoteNotFound) {
		return http.StatusNotFound
	}
	return 0
}

func newNoteResource(store *noteStore) *Resource[note, newNote, notePatch] {
	return NewResource[note, newNote, notePatch]("/api/v1/notes/", store, noteStatus, nil)
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestResource_CRUD(t *testing.T) {
	store := newNoteStore()
	resource := newNoteResource(store)

	resp := do(t, resource, http.MethodPost, "/api/v1/notes/", `{"text":"first"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.Code)
	}
	var created note
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID != 1 || created.Text != "first" {
		t.Fatalf("unexpected created %+v", created)
	}

	resp = do(t, resource, http.MethodGet, "/api/v1/notes/1/", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}

	resp = do(t, resource, http.MethodGet, "/api/v1/notes/", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	var listed []note
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one note, got %d", len(listed))
	}

	resp = do(t, resource, http.MethodPut, "/api/v1/notes/1/", `{"text":"second"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.Code)
	}
	var updated note
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Text != "second" {
		t.Fatalf("patch not applied: %+v", updated)
	}

	resp = do(t, resource, http.MethodDelete, "/api/v1/notes/1/", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.Code)
	}

	resp = do(t, resource, http.MethodGet, "/api/v1/notes/1/", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.Code)
	}
}

func TestResource_UntouchedFieldSurvivesPatch(t *testing.T) {
	store := newNoteStore()
	resource := newNoteResource(store)

	do(t, resource, http.MethodPost, "/api/v1/notes/", `{"text":"keep me"}`)
	resp := do(t, resource, http.MethodPut, "/api/v1/notes/1/", `{}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var updated note
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Text != "keep me" {
		t.Fatalf("omitted field was clobbered: %+v", updated)
	}
}

func TestResource_Errors(t *testing.T) {
	resource := newNoteResource(newNoteStore())

	resp := do(t, resource, http.MethodGet, "/api/v1/notes/99/", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing id: expected 404, got %d", resp.Code)
	}

	resp = do(t, resource, http.MethodDelete, "/api/v1/notes/99/", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing delete: expected 404, got %d", resp.Code)
	}

	resp = do(t, resource, http.MethodPost, "/api/v1/notes/", `{not json`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", resp.Code)
	}

	resp = do(t, resource, http.MethodPatch, "/api/v1/notes/1/", "")
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("patch verb: expected 405, got %d", resp.Code)
	}

	resp = do(t, resource, http.MethodGet, "/api/v1/notes/abc/", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("non-numeric id: expected 404, got %d", resp.Code)
	}

	// Collection path without the trailing slash is accepted.
	resp = do(t, resource, http.MethodGet, "/api/v1/notes", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("no trailing slash: expected 200, got %d", resp.Code)
	}
}
