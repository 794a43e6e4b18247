package appointments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/appointment"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/schedule"
)

func newTestServer(t *testing.T) (*httptest.Server, *appointment.Manager) {
	t.Helper()
	cfg := schedule.Config{Docks: 1, OpenHour: 6, CloseHour: 22, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	store := appointment.NewMemoryStore()
	cal := schedule.NewCalendar(cfg)
	view := schedule.NewView(cal, store, nil, nil)
	mgr, err := appointment.NewManager(schedule.NewAllocator(cal, store), store, view, nil, nil, nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(mgr, view).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mgr
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestScheduleEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/appointments", map[string]any{
		"warehouse_id":     "WH1",
		"date":             "2026-01-15",
		"operation":        "receiving",
		"duration_minutes": 60,
		"carrier_name":     "Acme Freight",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	appt := decode[model.Appointment](t, resp)
	assert.Equal(t, "APT-20260115-0001", appt.AppointmentNumber)
	assert.Equal(t, 1, appt.DockNumber)
	assert.Equal(t, time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC), appt.ScheduledStart)
}

func TestScheduleValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []map[string]any{
		{"date": "2026-01-15", "duration_minutes": 60, "carrier_name": "x"},                            // no warehouse
		{"warehouse_id": "WH1", "date": "nope", "duration_minutes": 60, "carrier_name": "x"},           // bad date
		{"warehouse_id": "WH1", "date": "2026-01-15", "duration_minutes": 0, "carrier_name": "x"},      // no duration
		{"warehouse_id": "WH1", "date": "2026-01-15", "duration_minutes": 60},                          // no carrier
	}
	for _, body := range cases {
		resp := postJSON(t, srv.URL+"/api/appointments", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestScheduleFullDayReturnsConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	body := map[string]any{
		"warehouse_id":     "WH1",
		"date":             "2026-01-15",
		"operation":        "receiving",
		"duration_minutes": 16 * 60,
		"carrier_name":     "Acme Freight",
	}
	resp := postJSON(t, srv.URL+"/api/appointments", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/appointments", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	created := decode[model.Appointment](t, postJSON(t, srv.URL+"/api/appointments", map[string]any{
		"warehouse_id":     "WH1",
		"date":             "2026-01-15",
		"operation":        "shipping",
		"duration_minutes": 90,
		"carrier_name":     "Acme Freight",
	}))

	resp, err := http.Get(srv.URL + "/api/appointments/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Appointment](t, resp)
	assert.Equal(t, created.ID, got.ID)

	resp, err = http.Get(srv.URL + "/api/appointments/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRescheduleEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	created := decode[model.Appointment](t, postJSON(t, srv.URL+"/api/appointments", map[string]any{
		"warehouse_id":     "WH1",
		"date":             "2026-01-15",
		"operation":        "receiving",
		"duration_minutes": 60,
		"carrier_name":     "Acme Freight",
	}))

	resp := postJSON(t, srv.URL+"/api/appointments/"+created.ID+"/reschedule", map[string]any{
		"date":             "2026-01-16",
		"preferred_window": "afternoon",
		"reason":           "carrier delayed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[model.Appointment](t, resp)
	assert.Equal(t, time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC), moved.ScheduledStart)
	require.Len(t, moved.Audit, 1)
}

func TestCancelEndpointLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	created := decode[model.Appointment](t, postJSON(t, srv.URL+"/api/appointments", map[string]any{
		"warehouse_id":     "WH1",
		"date":             "2026-01-15",
		"operation":        "receiving",
		"duration_minutes": 60,
		"carrier_name":     "Acme Freight",
	}))

	resp := postJSON(t, srv.URL+"/api/appointments/"+created.ID+"/cancel", map[string]any{"reason": "no show"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second cancel is a state conflict.
	resp = postJSON(t, srv.URL+"/api/appointments/"+created.ID+"/cancel", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// And so is rescheduling a cancelled appointment.
	resp = postJSON(t, srv.URL+"/api/appointments/"+created.ID+"/reschedule", map[string]any{"date": "2026-01-16"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDockScheduleEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	_ = decode[model.Appointment](t, postJSON(t, srv.URL+"/api/appointments", map[string]any{
		"warehouse_id":     "WH1",
		"date":             "2026-01-15",
		"operation":        "receiving",
		"duration_minutes": 60,
		"carrier_name":     "Acme Freight",
	}))

	resp, err := http.Get(srv.URL + "/api/docks/schedule?warehouse_id=WH1&date=2026-01-15")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	slots := decode[[]model.DockScheduleSlot](t, resp)
	require.Len(t, slots, 32)

	var unavailable int
	for _, s := range slots {
		if !s.Available {
			unavailable++
		}
	}
	assert.Equal(t, 2, unavailable)

	resp, err = http.Get(srv.URL + "/api/docks/schedule?warehouse_id=WH1&date=2026-01-15&dock=9")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decode[[]model.DockScheduleSlot](t, resp)
	assert.Empty(t, empty)
}
