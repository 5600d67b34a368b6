package http

import (
	"context"
	"errors"
	"net/http"

	apihttp "fleetwatch/internal/api/http"
	fleet "fleetwatch/internal/fleet/domain"
)

const eventsPrefix = "/api/v1/events/"

// EventLister loads events for exports.
type EventLister interface {
	List(ctx context.Context) ([]fleet.ModuleEvent, error)
}

// EventHandler serves event endpoints. CRUD is delegated to the generic
// resource; the export routes render the full event log as a file.
type EventHandler struct {
	resource http.Handler
	events   EventLister
}

// NewEventHandler constructs a handler.
func NewEventHandler(resource http.Handler, events EventLister) (*EventHandler, error) {
	if resource == nil {
		return nil, errors.New("event handler: nil resource")
	}
	if events == nil {
		return nil, errors.New("event handler: nil lister")
	}
	return &EventHandler{resource: resource, events: events}, nil
}

// ServeHTTP routes event requests.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := apihttp.TrimPrefix(r.URL.Path, eventsPrefix)
	if ok && (rest == "export.xlsx" || rest == "export.pdf") {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExport(w, r, rest)
		return
	}
	h.resource.ServeHTTP(w, r)
}

func (h *EventHandler) handleExport(w http.ResponseWriter, r *http.Request, name string) {
	events, err := h.events.List(r.Context())
	if err != nil {
		apihttp.RespondError(w, err, StatusOf)
		return
	}

	var payload []byte
	var contentType string
	switch name {
	case "export.xlsx":
		payload, err = BuildEventsXLSX(events)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "export.pdf":
		payload, err = BuildEventsPDF(events)
		contentType = "application/pdf"
	}
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="events_`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
