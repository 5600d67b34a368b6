package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	apihttp "fleetwatch/internal/api/http"
	"fleetwatch/internal/audit"
	"fleetwatch/internal/auth"
	fleetapp "fleetwatch/internal/fleet/application"
)

const devicesPrefix = "/api/v1/devices/"

// DeviceHandler serves device endpoints. CRUD is delegated to the generic
// resource; the association subroutes are handled here.
type DeviceHandler struct {
	resource     http.Handler
	associations *fleetapp.AssociationService
	auditLogger  audit.Logger
}

// NewDeviceHandler constructs a handler.
func NewDeviceHandler(resource http.Handler, associations *fleetapp.AssociationService, auditLogger audit.Logger) (*DeviceHandler, error) {
	if resource == nil {
		return nil, errors.New("device handler: nil resource")
	}
	if associations == nil {
		return nil, errors.New("device handler: nil association service")
	}
	return &DeviceHandler{resource: resource, associations: associations, auditLogger: auditLogger}, nil
}

// ServeHTTP routes device requests.
func (h *DeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := apihttp.TrimPrefix(r.URL.Path, devicesPrefix)
	if !ok {
		if r.URL.Path+"/" != devicesPrefix {
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
		case "connected_modules":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleConnectedModules(w, r, id)
			return
		case "connect_module":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.handleConnect(w, r, id)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}

	h.resource.ServeHTTP(w, r)
}

func (h *DeviceHandler) handleConnectedModules(w http.ResponseWriter, r *http.Request, deviceID int64) {
	modules, err := h.associations.ListConnectedModules(r.Context(), deviceID)
	if err != nil {
		apihttp.RespondError(w, err, StatusOf)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, modules)
}

func (h *DeviceHandler) handleConnect(w http.ResponseWriter, r *http.Request, deviceID int64) {
	moduleID, err := strconv.ParseInt(r.URL.Query().Get("module_id"), 10, 64)
	if err != nil || moduleID <= 0 {
		http.Error(w, "module_id is required", http.StatusBadRequest)
		return
	}

	device, err := h.associations.Connect(r.Context(), deviceID, moduleID)
	if err != nil {
		apihttp.RespondError(w, err, StatusOf)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, device)
	h.logAudit(r, deviceID, moduleID)
}

func (h *DeviceHandler) logAudit(r *http.Request, deviceID, moduleID int64) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"module_id": moduleID})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "device.module.connect",
		ResourceType: "device",
		ResourceID:   strconv.FormatInt(deviceID, 10),
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
