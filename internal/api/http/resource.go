package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Store is the uniform persistence contract shared by every entity kind:
// ordered list, by-id lookup, insert, partial update and delete.
type Store[E any, N any, P any] interface {
	List(ctx context.Context) ([]E, error)
	Get(ctx context.Context, id int64) (*E, error)
	Create(ctx context.Context, fields N) (*E, error)
	Update(ctx context.Context, id int64, patch P) (*E, error)
	Delete(ctx context.Context, id int64) error
}

// Resource serves the uniform CRUD surface for one entity kind under a path
// prefix such as "/api/v1/devices/". Entity-specific routes are handled by
// the wrapping handler before it delegates here.
type Resource[E any, N any, P any] struct {
	prefix string
	store  Store[E, N, P]
	status StatusFunc
	audit  AuditFunc
}

// StatusFunc maps a domain error to an HTTP status code. Returning 0 falls
// back to 500.
type StatusFunc func(error) int

// AuditFunc records a mutating operation.
type AuditFunc func(r *http.Request, action string, resourceID string)

// NewResource constructs a CRUD resource.
func NewResource[E any, N any, P any](prefix string, store Store[E, N, P], status StatusFunc, audit AuditFunc) *Resource[E, N, P] {
	return &Resource[E, N, P]{prefix: prefix, store: store, status: status, audit: audit}
}

// ServeHTTP routes list/get/create/update/delete requests.
func (res *Resource[E, N, P]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := TrimPrefix(r.URL.Path, res.prefix)
	if !ok {
		// Accept the collection path without its trailing slash.
		if r.URL.Path+"/" != res.prefix {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		rest = ""
	}

	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			res.handleList(w, r)
		case http.MethodPost:
			res.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := ParseID(rest)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		res.handleGet(w, r, id)
	case http.MethodPut:
		res.handleUpdate(w, r, id)
	case http.MethodDelete:
		res.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (res *Resource[E, N, P]) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := res.store.List(r.Context())
	if err != nil {
		res.respondError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (res *Resource[E, N, P]) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	entity, err := res.store.Get(r.Context(), id)
	if err != nil {
		res.respondError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entity)
}

func (res *Resource[E, N, P]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var fields N
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	entity, err := res.store.Create(r.Context(), fields)
	if err != nil {
		res.respondError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entity)
	res.logAudit(r, "create", entity)
}

func (res *Resource[E, N, P]) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var patch P
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	entity, err := res.store.Update(r.Context(), id, patch)
	if err != nil {
		res.respondError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, entity)
	if res.audit != nil {
		res.audit(r, "update", strconv.FormatInt(id, 10))
	}
}

func (res *Resource[E, N, P]) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := res.store.Delete(r.Context(), id); err != nil {
		res.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if res.audit != nil {
		res.audit(r, "delete", strconv.FormatInt(id, 10))
	}
}

func (res *Resource[E, N, P]) respondError(w http.ResponseWriter, err error) {
	RespondError(w, err, res.status)
}

func (res *Resource[E, N, P]) logAudit(r *http.Request, action string, entity any) {
	if res.audit == nil {
		return
	}
	type identifiable interface{ EntityID() int64 }
	id := ""
	if e, ok := entity.(identifiable); ok {
		id = strconv.FormatInt(e.EntityID(), 10)
	}
	res.audit(r, action, id)
}

// TrimPrefix strips prefix and a trailing slash from path. The boolean is
// false when path is outside the prefix.
func TrimPrefix(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.TrimSuffix(rest, "/")
	return rest, true
}

// ParseID parses a decimal entity id path segment.
func ParseID(segment string) (int64, bool) {
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
