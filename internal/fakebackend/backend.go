// Package fakebackend serves the reservation API from memory. It follows the
// real backend's contract closely enough for local runs and tests; it is not
// a replacement for it.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"sync"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"
	"bikeshare/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Route names for FailNext and Calls.
const (
	RouteStations = "stations"
	RouteReserve  = "reserve"
	RouteList     = "list"
	RouteUpdate   = "update"
	RouteCancel   = "cancel"
	RouteContact  = "contact"
)

type failure struct {
	status  int
	message string
}

type Backend struct {
	mu              sync.Mutex
	stations        []entities.Station
	stationsPayload []byte
	reservations    map[string]*entities.Reservation
	order           []string
	failures        map[string]failure
	calls           map[string]int
}

func New(stations []entities.Station) *Backend {
	return &Backend{
		stations:     append([]entities.Station(nil), stations...),
		reservations: make(map[string]*entities.Reservation),
		failures:     make(map[string]failure),
		calls:        make(map[string]int),
	}
}

func DefaultStations() []entities.Station {
	return []entities.Station{
		{ID: "st-001", Name: "Central Station", Lat: 52.5251, Lng: 13.3694, AvailableBikes: 12, DemandLevel: entities.DemandHigh},
		{ID: "st-002", Name: "Riverside Park", Lat: 52.5163, Lng: 13.3777, AvailableBikes: 7, DemandLevel: entities.DemandMedium},
		{ID: "st-003", Name: "Old Town Square", Lat: 52.5200, Lng: 13.4050, AvailableBikes: 3, DemandLevel: entities.DemandLow},
		{ID: "st-004", Name: "University Campus", Lat: 52.5125, Lng: 13.3269, AvailableBikes: 0, DemandLevel: entities.DemandHigh},
	}
}

// Router registers the public endpoints.
func (b *Backend) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/stations", b.track(RouteStations, b.ListStations)).Methods("GET")
	r.HandleFunc("/api/reserve", b.track(RouteReserve, b.CreateReservation)).Methods("POST")
	r.HandleFunc("/api/reservations", b.track(RouteList, b.ListReservations)).Methods("GET")
	r.HandleFunc("/api/reservations/{id}", b.track(RouteUpdate, b.UpdateReservation)).Methods("PUT")
	r.HandleFunc("/api/reservations/{id}", b.track(RouteCancel, b.CancelReservation)).Methods("DELETE")
	r.HandleFunc("/api/contact", b.track(RouteContact, b.Contact)).Methods("POST")
	return r
}

// Handler is the router wrapped with panic recovery.
func (b *Backend) Handler() http.Handler {
	return handlers.RecoveryHandler()(b.Router())
}

// FailNext makes the next call to route answer with status and message.
func (b *Backend) FailNext(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = failure{status: status, message: message}
}

// SetStationsPayload replaces the stations response body verbatim.
func (b *Backend) SetStationsPayload(raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stationsPayload = []byte(raw)
}

// SetDemand changes a station's live demand level.
func (b *Backend) SetDemand(stationID string, demand entities.DemandLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.stations {
		if b.stations[i].ID == stationID {
			b.stations[i].DemandLevel = demand
		}
	}
}

func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

func (b *Backend) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		f, failing := b.failures[route]
		delete(b.failures, route)
		b.mu.Unlock()

		if failing {
			if f.message == "" {
				w.WriteHeader(f.status)
				return
			}
			writeError(w, f.status, f.message)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, entities.ErrorResponse{Error: message})
}

func writeHTTPError(w http.ResponseWriter, err *apperrors.HTTPError) {
	writeError(w, err.Code, err.Message)
}

func (b *Backend) ListStations(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	payload := b.stationsPayload
	stations := append([]entities.Station(nil), b.stations...)
	b.mu.Unlock()

	if payload != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

func (b *Backend) station(id string) (entities.Station, bool) {
	for _, st := range b.stations {
		if st.ID == id {
			return st, true
		}
	}
	return entities.Station{}, false
}

func (b *Backend) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeHTTPError(w, apperrors.ErrBadRequest("Invalid request"))
		return
	}
	if req.Date.IsZero() || !req.TimeSlot.Valid() || req.StationID == "" || req.UserEmail == "" {
		writeHTTPError(w, apperrors.ErrBadRequest("date, time_slot, station_id and user_email are required"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.station(req.StationID)
	if !ok {
		writeHTTPError(w, apperrors.ErrNotFound("Station not found"))
		return
	}
	if st.AvailableBikes == 0 {
		writeError(w, http.StatusConflict, "No bikes available at this station")
		return
	}

	// Demand comes from the live station, not from what the client predicted.
	res := &entities.Reservation{
		ID:          uuid.NewString(),
		StationID:   st.ID,
		StationName: st.Name,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Demand:      st.DemandLevel,
		Price:       service.Price(st.DemandLevel, req.TimeSlot),
		Status:      entities.StatusConfirmed,
		UserEmail:   req.UserEmail,
	}
	b.reservations[res.ID] = res
	b.order = append(b.order, res.ID)

	writeJSON(w, http.StatusCreated, res)
}

func (b *Backend) ListReservations(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("user_email")
	if email == "" {
		writeHTTPError(w, apperrors.ErrBadRequest("user_email is required"))
		return
	}

	b.mu.Lock()
	list := entities.ReservationsList{Reservations: []entities.Reservation{}}
	for _, id := range b.order {
		if res, ok := b.reservations[id]; ok && res.UserEmail == email {
			list.Reservations = append(list.Reservations, *res)
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req entities.ReservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeHTTPError(w, apperrors.ErrBadRequest("Invalid request"))
		return
	}
	if req.Date.IsZero() || !req.TimeSlot.Valid() || req.StationID == "" {
		writeHTTPError(w, apperrors.ErrBadRequest("date, time_slot and station_id are required"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := b.reservations[id]
	if !ok || res.UserEmail != req.UserEmail {
		writeHTTPError(w, apperrors.ErrNotFound("Reservation not found"))
		return
	}
	st, ok := b.station(req.StationID)
	if !ok {
		writeHTTPError(w, apperrors.ErrNotFound("Station not found"))
		return
	}
	res.StationID = st.ID
	res.StationName = st.Name
	res.Date = req.Date
	res.TimeSlot = req.TimeSlot
	res.Demand = st.DemandLevel
	res.Price = service.Price(st.DemandLevel, req.TimeSlot)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Reservation updated"})
}

func (b *Backend) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	email := r.URL.Query().Get("user_email")

	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := b.reservations[id]
	if !ok || res.UserEmail != email {
		writeHTTPError(w, apperrors.ErrNotFound("Reservation not found"))
		return
	}
	delete(b.reservations, id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Reservation cancelled"})
}

func (b *Backend) Contact(w http.ResponseWriter, r *http.Request) {
	var req entities.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Message == "" {
		writeHTTPError(w, apperrors.ErrBadRequest("email and message are required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message received"})
}
