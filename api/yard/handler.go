// Package yard exposes trailer check-in/out, yard moves and analytics over HTTP.
package yard

import (
	"net/http"

	"github.com/dockops/yms/api/httpx"
	"github.com/dockops/yms/core/analytics"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/trailer"
	coreyard "github.com/dockops/yms/core/yard"
)

// Handler serves the /api/trailers and /api/yard routes.
type Handler struct {
	tracker   *trailer.Tracker
	engine    *coreyard.Engine
	agg       *analytics.Aggregator
	optimizer *analytics.Optimizer
}

func NewHandler(tracker *trailer.Tracker, engine *coreyard.Engine, agg *analytics.Aggregator, opt *analytics.Optimizer) *Handler {
	return &Handler{tracker: tracker, engine: engine, agg: agg, optimizer: opt}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/trailers/checkin", h.checkIn)
	mux.HandleFunc("POST /api/trailers/checkout", h.checkOut)
	mux.HandleFunc("GET /api/trailers/{id}", h.getTrailer)
	mux.HandleFunc("POST /api/yard/moves", h.requestMove)
	mux.HandleFunc("POST /api/yard/moves/{id}/execute", h.executeMove)
	mux.HandleFunc("GET /api/yard/moves/{id}", h.getMove)
	mux.HandleFunc("GET /api/yard/locations", h.locations)
	mux.HandleFunc("GET /api/yard/snapshot", h.snapshot)
	mux.HandleFunc("POST /api/yard/optimize", h.optimize)
}

type checkInRequest struct {
	WarehouseID   string `json:"warehouse_id"`
	PlateNumber   string `json:"plate_number"`
	CarrierName   string `json:"carrier_name"`
	DriverName    string `json:"driver_name,omitempty"`
	DriverPhone   string `json:"driver_phone,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Operation     string `json:"operation,omitempty"`
	YardLocation  string `json:"yard_location,omitempty"`
}

type checkInResponse struct {
	Trailer          model.Trailer      `json:"trailer"`
	Appointment      *model.Appointment `json:"appointment,omitempty"`
	AssignedLocation string             `json:"assigned_location"`
	IsLate           bool               `json:"is_late"`
	DelayMinutes     int                `json:"delay_minutes"`
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

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.WarehouseID == "" || req.PlateNumber == "" {
		httpx.WriteBadRequest(w, "warehouse_id and plate_number are required")
		return
	}
	res, err := h.tracker.CheckIn(r.Context(), trailer.CheckInRequest{
		WarehouseID:   req.WarehouseID,
		PlateNumber:   req.PlateNumber,
		CarrierName:   req.CarrierName,
		DriverName:    req.DriverName,
		DriverPhone:   req.DriverPhone,
		AppointmentID: req.AppointmentID,
		Operation:     operationFromString(req.Operation),
		YardLocation:  req.YardLocation,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, checkInResponse{
		Trailer:          res.Trailer,
		Appointment:      res.Appointment,
		AssignedLocation: res.AssignedLocation,
		IsLate:           res.IsLate,
		DelayMinutes:     res.DelayMinutes,
	})
}

type checkOutRequest struct {
	TrailerID string `json:"trailer_id"`
	Actor     string `json:"actor,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type checkOutResponse struct {
	Trailer         model.Trailer `json:"trailer"`
	DwellTimeHours  float64       `json:"dwell_time_hours"`
	DetentionCharge float64       `json:"detention_charge"`
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	var req checkOutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.TrailerID == "" {
		httpx.WriteBadRequest(w, "trailer_id is required")
		return
	}
	res, err := h.tracker.CheckOut(r.Context(), req.TrailerID, req.Actor, req.Notes)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkOutResponse{
		Trailer:         res.Trailer,
		DwellTimeHours:  res.DwellTimeHours,
		DetentionCharge: res.DetentionCharge,
	})
}

func (h *Handler) getTrailer(w http.ResponseWriter, r *http.Request) {
	t, err := h.tracker.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

type moveRequest struct {
	TrailerID  string `json:"trailer_id"`
	ToLocation string `json:"to_location"`
	Reason     string `json:"reason,omitempty"`
	Priority   int    `json:"priority,omitempty"`
	OperatorID string `json:"operator_id,omitempty"`
}

func (h *Handler) requestMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.TrailerID == "" || req.ToLocation == "" {
		httpx.WriteBadRequest(w, "trailer_id and to_location are required")
		return
	}
	mv, err := h.engine.RequestMove(r.Context(), req.TrailerID, req.ToLocation, req.Reason, req.Priority, req.OperatorID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, mv)
}

type executeRequest struct {
	OperatorID string `json:"operator_id,omitempty"`
}

func (h *Handler) executeMove(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	mv, err := h.engine.Execute(r.Context(), r.PathValue("id"), req.OperatorID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mv)
}

func (h *Handler) getMove(w http.ResponseWriter, r *http.Request) {
	mv, err := h.engine.GetMove(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mv)
}

func (h *Handler) locations(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.URL.Query().Get("warehouse_id")
	if warehouseID == "" {
		httpx.WriteBadRequest(w, "warehouse_id is required")
		return
	}
	locs, err := h.engine.Locations(r.Context(), warehouseID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, locs)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.URL.Query().Get("warehouse_id")
	if warehouseID == "" {
		httpx.WriteBadRequest(w, "warehouse_id is required")
		return
	}
	snap, err := h.agg.Snapshot(r.Context(), warehouseID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, snap)
}

type optimizeRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

func (h *Handler) optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.WarehouseID == "" {
		httpx.WriteBadRequest(w, "warehouse_id is required")
		return
	}
	res, err := h.optimizer.Optimize(r.Context(), req.WarehouseID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
