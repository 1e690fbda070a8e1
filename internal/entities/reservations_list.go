package entities

type ReservationsList struct {
	Reservations []Reservation `json:"reservations"`
}
