package entities

type ReservationStatus string

// Statuses other than these are server-defined and passed through untouched.
const (
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCancelled ReservationStatus = "Cancelled"
)

type Reservation struct {
	ID          string            `json:"reservation_id"`
	StationID   string            `json:"station_id,omitempty"`
	StationName string            `json:"station"`
	Date        Date              `json:"date"`
	TimeSlot    TimeSlot          `json:"time_slot"`
	Demand      DemandLevel       `json:"predicted_demand,omitempty"`
	Price       int               `json:"price"`
	Status      ReservationStatus `json:"status"`
	UserEmail   string            `json:"user_email,omitempty"`
}
