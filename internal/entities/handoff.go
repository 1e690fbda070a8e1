package entities

// Handoff is the station selection carried by a single navigation from the
// station list to the reservation view.
type Handoff struct {
	StationID string      `json:"station_id"`
	Demand    DemandLevel `json:"demand_level"`
}
