package entities

import (
	"fmt"
	"strings"
)

type DemandLevel string

const (
	DemandLow    DemandLevel = "Low"
	DemandMedium DemandLevel = "Medium"
	DemandHigh   DemandLevel = "High"
)

var DemandLevels = []DemandLevel{DemandLow, DemandMedium, DemandHigh}

// ParseDemandLevel accepts the level name in any case.
func ParseDemandLevel(s string) (DemandLevel, error) {
	for _, d := range DemandLevels {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown demand level %q", s)
}

func (d DemandLevel) Valid() bool {
	switch d {
	case DemandLow, DemandMedium, DemandHigh:
		return true
	}
	return false
}

type Station struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Lat            float64     `json:"lat"`
	Lng            float64     `json:"lng"`
	AvailableBikes int         `json:"available_bikes"`
	DemandLevel    DemandLevel `json:"demand_level"`
}
