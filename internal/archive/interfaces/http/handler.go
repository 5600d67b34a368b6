package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apihttp "fleetwatch/internal/api/http"
	archiveapp "fleetwatch/internal/archive/application"
	archive "fleetwatch/internal/archive/domain"
	"fleetwatch/internal/audit"
	"fleetwatch/internal/auth"
	fleet "fleetwatch/internal/fleet/domain"
)

const archivePrefix = "/api/v1/archive/"

// maxUploadBytes caps multipart uploads at 512 MiB.
const maxUploadBytes = 512 << 20

// Handler serves archive endpoints. CRUD is delegated to the generic
// resource; the file subroutes talk to the archive service.
type Handler struct {
	resource    http.Handler
	service     *archiveapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(resource http.Handler, service *archiveapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if resource == nil {
		return nil, errors.New("archive handler: nil resource")
	}
	if service == nil {
		return nil, errors.New("archive handler: nil service")
	}
	return &Handler{resource: resource, service: service, auditLogger: auditLogger}, nil
}

// StatusOf maps archive domain errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, archive.ErrBlobMissing):
		return http.StatusNotFound
	case errors.Is(err, archive.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, archive.ErrInvalid):
		return http.StatusBadRequest
	}
	return 0
}

// ServeHTTP routes archive requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := apihttp.TrimPrefix(r.URL.Path, archivePrefix)
	if !ok {
		if r.URL.Path+"/" != archivePrefix {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		rest = ""
	}

	parts := strings.Split(rest, "/")
	if len(parts) == 2 {
		id, ok := apihttp.ParseID(parts[0])
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch parts[1] {
		case "upload":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleUpload(w, r, id)
			return
		case "download_file":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleDownload(w, r, id)
			return
		case "get_download_link":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleDownloadLink(w, r, id)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h.resource.ServeHTTP(w, r)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, id int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	record, err := h.service.Upload(r.Context(), id, file, header.Filename)
	if err != nil {
		apihttp.RespondError(w, err, StatusOf)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, record)
	h.logAudit(r, id, "archive.upload", header.Filename)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, id int64) {
	stream, key, err := h.service.Download(r.Context(), id)
	if err != nil {
		apihttp.RespondError(w, err, StatusOf)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, stream)
}

func (h *Handler) handleDownloadLink(w http.ResponseWriter, r *http.Request, id int64) {
	url, err := h.service.DownloadLink(r.Context(), id)
	if err != nil {
		apihttp.RespondError(w, err, StatusOf)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) logAudit(r *http.Request, id int64, action, filename string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "archive",
		ResourceID:   strconv.FormatInt(id, 10),
		Metadata:     []byte(`{"filename":` + strconv.Quote(filename) + `}`),
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
