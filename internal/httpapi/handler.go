// Package httpapi exposes the directory over REST under /data (and the
// legacy /api/data prefix).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gstdirectory/pkg/directory"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Prefixes the data routes are mounted under.
var Prefixes = []string{"/data", "/api/data"}

type insertRequest struct {
	City   string `json:"city"`
	Trader string `json:"trader"`
	GST    string `json:"gst"`
}

type updateRequest struct {
	OldCity   string `json:"oldCity"`
	OldTrader string `json:"oldTrader"`
	NewCity   string `json:"newCity"`
	NewTrader string `json:"newTrader"`
	NewGST    string `json:"newGST"`
}

type deleteRequest struct {
	City   string `json:"city"`
	Trader string `json:"trader"`
}

// MessageResponse is the body of successful mutations.
type MessageResponse struct {
	Message string            `json:"message"`
	Entry   *directory.Record `json:"entry,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the directory routes.
type Handler struct {
	dir    *directory.Directory
	events http.Handler
	logger *zap.Logger
}

// NewHandler returns the route handlers. events serves the websocket change
// feed and may be nil to disable it.
func NewHandler(dir *directory.Directory, events http.Handler, logger *zap.Logger) *Handler {
	return &Handler{dir: dir, events: events, logger: logger}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, p := range Prefixes {
		mux.HandleFunc("GET "+p, h.list)
		mux.HandleFunc("POST "+p, h.insert)
		mux.HandleFunc("PUT "+p, h.update)
		mux.HandleFunc("DELETE "+p, h.delete)
		mux.HandleFunc("GET "+p+"/cities", h.cities)
		mux.HandleFunc("GET "+p+"/cities/{city}", h.traders)
		mux.HandleFunc("GET "+p+"/cities/{city}/traders/{trader}", h.lookup)
		if h.events != nil {
			mux.Handle("GET "+p+"/events", h.events)
		}
	}
	mux.HandleFunc("GET /healthz", h.health)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		records []directory.Record
		err     error
	)
	if city := r.URL.Query().Get("city"); strings.TrimSpace(city) != "" {
		records, err = h.dir.Traders(r.Context(), city)
	} else {
		records, err = h.dir.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) insert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.dir.Insert(r.Context(), req.City, req.Trader, req.GST)
	if err != nil {
		h.fail(w, r, err, "Trader already exists in this city.")
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Added successfully", Entry: &rec})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.dir.Update(r.Context(), req.OldCity, req.OldTrader, req.NewCity, req.NewTrader, req.NewGST)
	if err != nil {
		h.fail(w, r, err, "New name/city creates a duplicate.")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Updated successfully", Entry: &rec})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.dir.Delete(r.Context(), req.City, req.Trader); err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

func (h *Handler) cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.dir.Cities(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if cities == nil {
		cities = []string{}
	}
	writeJSON(w, http.StatusOK, cities)
}

func (h *Handler) traders(w http.ResponseWriter, r *http.Request) {
	records, err := h.dir.Traders(r.Context(), r.PathValue("city"))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.dir.Lookup(r.Context(), r.PathValue("city"), r.PathValue("trader"))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.dir.List(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v, replying 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debug("bad request body", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body."})
		return false
	}
	return true
}

// fail maps a directory error to a status code. duplicateMsg overrides the
// default conflict message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, duplicateMsg string) {
	switch {
	case errors.Is(err, directory.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationMessage(err)})
	case errors.Is(err, directory.ErrDuplicateKey):
		if duplicateMsg == "" {
			duplicateMsg = "Trader already exists in this city."
		}
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: duplicateMsg})
	case errors.Is(err, directory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Entry not found."})
	default:
		h.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Server Error"})
	}
}

// validationMessage returns the part of a validation error after the sentinel text.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, directory.ErrValidation.Error()+": "); i >= 0 {
		msg = msg[i+len(directory.ErrValidation.Error())+2:]
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
