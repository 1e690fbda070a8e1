package service

import (
	"sync"

	"bikeshare/internal/entities"
)

// ReservationView is the state behind the reservation page. A handoff from
// the station list is applied on the first render only; later station
// changes take their demand level from the live catalog.
type ReservationView struct {
	catalog *CatalogService

	mu        sync.Mutex
	handoff   *entities.Handoff
	mounted   bool
	stationID string
	demand    entities.DemandLevel
	date      entities.Date
	timeSlot  entities.TimeSlot
}

// NewReservationView takes ownership of handoff, which may be nil.
func NewReservationView(catalog *CatalogService, handoff *entities.Handoff) *ReservationView {
	var h *entities.Handoff
	if handoff != nil {
		cp := *handoff
		h = &cp
	}
	return &ReservationView{catalog: catalog, handoff: h}
}

// Render applies the handoff on first call and is a no-op for it afterwards.
func (v *ReservationView) Render() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted {
		return
	}
	v.mounted = true
	if v.handoff == nil {
		return
	}
	v.stationID = v.handoff.StationID
	v.demand = v.handoff.Demand
	v.handoff = nil
}

// SelectStation switches station and re-reads its demand from the catalog.
// An id the catalog does not know clears the demand display.
func (v *ReservationView) SelectStation(id string) {
	var demand entities.DemandLevel
	if st, ok := v.catalog.FindByID(id); ok {
		demand = st.DemandLevel
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stationID = id
	v.demand = demand
}

func (v *ReservationView) SelectDate(d entities.Date) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.date = d
}

func (v *ReservationView) SelectTimeSlot(t entities.TimeSlot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeSlot = t
}

func (v *ReservationView) StationID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stationID
}

func (v *ReservationView) Demand() entities.DemandLevel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.demand
}

// QuotedPrice is the display price for the current selection; ok is false
// until both demand and slot are known.
func (v *ReservationView) QuotedPrice() (price int, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.demand.Valid() || !v.timeSlot.Valid() {
		return 0, false
	}
	return Price(v.demand, v.timeSlot), true
}

// Form returns the selection ready for submission.
func (v *ReservationView) Form() ReservationForm {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ReservationForm{
		Date:      v.date,
		TimeSlot:  v.timeSlot,
		StationID: v.stationID,
		Demand:    v.demand,
	}
}
