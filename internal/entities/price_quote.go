package entities

type PriceQuote struct {
	Demand    DemandLevel `json:"demand_level"`
	TimeSlot  TimeSlot    `json:"time_slot"`
	Base      int         `json:"base"`
	Surcharge int         `json:"surcharge"`
	Price     int         `json:"price"`
}
