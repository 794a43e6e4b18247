// Package appointments exposes the appointment lifecycle over HTTP.
package appointments

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dockops/yms/api/httpx"
	"github.com/dockops/yms/core/appointment"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/schedule"
)

// Handler serves the /api/appointments and /api/docks routes.
type Handler struct {
	mgr  *appointment.Manager
	view *schedule.View
}

func NewHandler(mgr *appointment.Manager, view *schedule.View) *Handler {
	return &Handler{mgr: mgr, view: view}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/appointments", h.schedule)
	mux.HandleFunc("GET /api/appointments/{id}", h.get)
	mux.HandleFunc("POST /api/appointments/{id}/reschedule", h.reschedule)
	mux.HandleFunc("POST /api/appointments/{id}/cancel", h.cancel)
	mux.HandleFunc("GET /api/docks/schedule", h.dockSchedule)
}

type scheduleRequest struct {
	WarehouseID     string                    `json:"warehouse_id"`
	Date            string                    `json:"date"` // YYYY-MM-DD
	PreferredWindow string                    `json:"preferred_window,omitempty"`
	Operation       string                    `json:"operation"`
	DurationMinutes int                       `json:"duration_minutes"`
	Priority        int                       `json:"priority,omitempty"`
	CarrierName     string                    `json:"carrier_name"`
	Requirements    model.SpecialRequirements `json:"requirements,omitempty"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func operationFromString(s string) model.OperationType {
	switch s {
	case "shipping":
		return model.OpShipping
	case "both":
		return model.OpBoth
	default:
		return model.OpReceiving
	}
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.WarehouseID == "" || req.CarrierName == "" {
		httpx.WriteBadRequest(w, "warehouse_id and carrier_name are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.WriteBadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	if req.DurationMinutes <= 0 {
		httpx.WriteBadRequest(w, "duration_minutes must be positive")
		return
	}
	appt, err := h.mgr.Schedule(r.Context(), appointment.ScheduleRequest{
		WarehouseID:     req.WarehouseID,
		Date:            date,
		Window:          model.WindowFromString(req.PreferredWindow),
		Operation:       operationFromString(req.Operation),
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		CarrierName:     req.CarrierName,
		Requirements:    req.Requirements,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, appt)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.mgr.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

type rescheduleRequest struct {
	Date            string `json:"date"`
	PreferredWindow string `json:"preferred_window,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Actor           string `json:"actor,omitempty"`
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.WriteBadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	appt, err := h.mgr.Reschedule(r.Context(), r.PathValue("id"), date,
		model.WindowFromString(req.PreferredWindow), req.Reason, req.Actor)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	appt, err := h.mgr.Cancel(r.Context(), r.PathValue("id"), req.Reason, req.Actor)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) dockSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	warehouseID := q.Get("warehouse_id")
	if warehouseID == "" {
		httpx.WriteBadRequest(w, "warehouse_id is required")
		return
	}
	date, err := parseDate(q.Get("date"))
	if err != nil {
		httpx.WriteBadRequest(w, "date must be YYYY-MM-DD")
		return
	}
	dock := 0
	if s := q.Get("dock"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			httpx.WriteBadRequest(w, "dock must be a positive integer")
			return
		}
		dock = n
	}
	slots, err := h.view.Schedule(r.Context(), warehouseID, date, dock)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}
