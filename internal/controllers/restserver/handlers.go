package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chrissnell/changepoints/internal/detection"
	"github.com/chrissnell/changepoints/internal/log"
	"github.com/chrissnell/changepoints/internal/storage"
	"github.com/chrissnell/changepoints/pkg/changepoint"
	"github.com/chrissnell/changepoints/pkg/responseformat"
	"github.com/gorilla/mux"
)

// bytesPerValue bounds the encoded size of one series element in a request body
const bytesPerValue = 32

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status  string                    `json:"status"`
	Storage map[string]storage.Health `json:"storage,omitempty"`
}

// RunsResponse is returned by the run listing endpoint
type RunsResponse struct {
	Runs []storage.Run `json:"runs"`
}

// Detect handles POST /api/v1/detect
func (h *Handlers) Detect(w http.ResponseWriter, req *http.Request) {
	maxLen := h.controller.restConfig.MaxSeriesLength
	req.Body = http.MaxBytesReader(w, req.Body, int64(maxLen)*bytesPerValue+64*1024)

	var dr detection.Request
	if err := h.formatter.DecodeRequest(req, &dr); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, req, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.sendError(w, req, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(dr.Series) > maxLen {
		h.sendError(w, req, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("series has %d values, the limit is %d", len(dr.Series), maxLen))
		return
	}

	resp, err := h.controller.service.Run(req.Context(), dr)
	if err != nil {
		h.sendServiceError(w, req, err)
		return
	}

	h.sendResponse(w, req, http.StatusOK, resp)
}

// ListRuns handles GET /api/v1/runs
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.sendError(w, req, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	runs, err := h.controller.service.ListRuns(req.Context(), limit)
	if err != nil {
		h.sendServiceError(w, req, err)
		return
	}

	h.sendResponse(w, req, http.StatusOK, RunsResponse{Runs: runs})
}

// GetRun handles GET /api/v1/runs/{id}
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	run, err := h.controller.service.GetRun(req.Context(), id)
	if err != nil {
		h.sendServiceError(w, req, err)
		return
	}

	h.sendResponse(w, req, http.StatusOK, run)
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{
		Status:  storage.StatusHealthy,
		Storage: h.controller.health.GetAllHealth(),
	}

	status := http.StatusOK
	if !h.controller.health.Healthy() {
		resp.Status = storage.StatusUnhealthy
		status = http.StatusServiceUnavailable
	}

	h.sendResponse(w, req, status, resp)
}

func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.sendError(w, req, http.StatusNotFound, "not found")
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.sendError(w, req, http.StatusMethodNotAllowed, "method not allowed")
}

// statusForError maps service errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	// ErrInfeasible wraps ErrInvalidParameter, so it has to be checked first.
	case errors.Is(err, changepoint.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, changepoint.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, detection.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) sendServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Errorf("request %s %s failed: %v", req.Method, req.URL.Path, err)
		h.sendError(w, req, status, "internal server error")
		return
	}
	h.sendError(w, req, status, err.Error())
}

func (h *Handlers) sendResponse(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func (h *Handlers) sendError(w http.ResponseWriter, req *http.Request, status int, message string) {
	if err := h.formatter.WriteError(w, req, status, message); err != nil {
		log.Errorf("failed to encode error response: %v", err)
	}
}
