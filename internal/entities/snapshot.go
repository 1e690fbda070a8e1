package entities

// LatestReservationSnapshot is the projection of the most recent confirmed
// booking. Status is always StatusConfirmed.
type LatestReservationSnapshot struct {
	ReservationID string            `json:"reservation_id"`
	StationName   string            `json:"station"`
	Date          Date              `json:"date"`
	TimeSlot      TimeSlot          `json:"time_slot"`
	Price         int               `json:"price"`
	Status        ReservationStatus `json:"status"`
	Demand        DemandLevel       `json:"predicted_demand,omitempty"`
	StationID     string            `json:"station_id,omitempty"`
}

func SnapshotOf(r Reservation) LatestReservationSnapshot {
	return LatestReservationSnapshot{
		ReservationID: r.ID,
		StationName:   r.StationName,
		Date:          r.Date,
		TimeSlot:      r.TimeSlot,
		Price:         r.Price,
		Status:        StatusConfirmed,
		Demand:        r.Demand,
		StationID:     r.StationID,
	}
}
