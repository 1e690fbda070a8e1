package entities

type ReceiptData struct {
	UserEmail       string
	ReservationCode string
	StationName     string
	DateFormatted   string
	SlotLabel       string
	Price           int
	Status          string
	CurrentYear     int
}
