package service

import "bikeshare/internal/entities"

const nightSurcharge = 100

var basePrices = map[entities.DemandLevel]int{
	entities.DemandLow:    200,
	entities.DemandMedium: 300,
	entities.DemandHigh:   400,
}

// Price mirrors the backend's pricing rule for display before submission.
// The price the backend returns always takes precedence.
func Price(demand entities.DemandLevel, slot entities.TimeSlot) int {
	return Quote(demand, slot).Price
}

func Quote(demand entities.DemandLevel, slot entities.TimeSlot) entities.PriceQuote {
	q := entities.PriceQuote{
		Demand:   demand,
		TimeSlot: slot,
		Base:     basePrices[demand],
	}
	if slot == entities.SlotNight {
		q.Surcharge = nightSurcharge
	}
	q.Price = q.Base + q.Surcharge
	return q
}

// PriceGrid returns one quote per demand level and time slot.
func PriceGrid() []entities.PriceQuote {
	grid := make([]entities.PriceQuote, 0, len(entities.DemandLevels)*len(entities.TimeSlots))
	for _, d := range entities.DemandLevels {
		for _, s := range entities.TimeSlots {
			grid = append(grid, Quote(d, s))
		}
	}
	return grid
}
