package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bikeshare/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(b *Backend, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	return rec
}

func TestReserveUsesLiveDemand(t *testing.T) {
	b := New(DefaultStations())
	b.SetDemand("st-003", entities.DemandHigh)

	rec := serve(b, http.MethodPost, "/api/reserve",
		`{"date":"2026-11-02","time_slot":"Night","station_id":"st-003","predicted_demand":"Low","user_email":"a@b.c"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res entities.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, entities.DemandHigh, res.Demand)
	assert.Equal(t, 500, res.Price)
	assert.Equal(t, "Old Town Square", res.StationName)
}

func TestReserveWithoutBikes(t *testing.T) {
	b := New(DefaultStations())
	rec := serve(b, http.MethodPost, "/api/reserve",
		`{"date":"2026-11-02","time_slot":"Morning","station_id":"st-004","user_email":"a@b.c"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "No bikes available")
}

func TestFailNextIsOneShot(t *testing.T) {
	b := New(DefaultStations())
	b.FailNext(RouteStations, http.StatusServiceUnavailable, "maintenance")

	rec := serve(b, http.MethodGet, "/api/stations", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"maintenance"}`, rec.Body.String())

	rec = serve(b, http.MethodGet, "/api/stations", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, b.Calls(RouteStations))
}

func TestListRequiresEmail(t *testing.T) {
	b := New(DefaultStations())
	rec := serve(b, http.MethodGet, "/api/reservations", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"user_email is required"}`, rec.Body.String())

	rec = serve(b, http.MethodGet, "/api/reservations?user_email=a%40b.c", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reservations":[]}`, rec.Body.String())
}

func TestCancelUnknownReservation(t *testing.T) {
	b := New(DefaultStations())
	rec := serve(b, http.MethodDelete, "/api/reservations/missing?user_email=a%40b.c", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Reservation not found"}`, rec.Body.String())
}

func TestStationsPayloadOverride(t *testing.T) {
	b := New(nil)
	b.SetStationsPayload(`{"stations":"nope"}`)
	rec := serve(b, http.MethodGet, "/api/stations", "")
	assert.Equal(t, `{"stations":"nope"}`, rec.Body.String())
}
