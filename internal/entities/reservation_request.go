package entities

// ReservationRequest is the body of POST /api/reserve.
type ReservationRequest struct {
	Date      Date        `json:"date"`
	TimeSlot  TimeSlot    `json:"time_slot"`
	StationID string      `json:"station_id"`
	Demand    DemandLevel `json:"predicted_demand"`
	UserEmail string      `json:"user_email"`
}

// ReservationUpdate is the body of PUT /api/reservations/{id}. Price and
// demand are recomputed by the server and never sent.
type ReservationUpdate struct {
	UserEmail string   `json:"user_email"`
	Date      Date     `json:"date"`
	TimeSlot  TimeSlot `json:"time_slot"`
	StationID string   `json:"station_id"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
