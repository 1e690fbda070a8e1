package entities

import (
	"fmt"
	"strings"
)

type TimeSlot string

const (
	SlotMorning   TimeSlot = "Morning"
	SlotAfternoon TimeSlot = "Afternoon"
	SlotEvening   TimeSlot = "Evening"
	SlotNight     TimeSlot = "Night"
)

var TimeSlots = []TimeSlot{SlotMorning, SlotAfternoon, SlotEvening, SlotNight}

// ClockRange is display-only; Night wraps past midnight.
type ClockRange struct {
	Start string
	End   string
}

var slotRanges = map[TimeSlot]ClockRange{
	SlotMorning:   {Start: "06:00", End: "12:00"},
	SlotAfternoon: {Start: "12:00", End: "17:00"},
	SlotEvening:   {Start: "17:00", End: "21:00"},
	SlotNight:     {Start: "21:00", End: "06:00"},
}

func ParseTimeSlot(s string) (TimeSlot, error) {
	for _, t := range TimeSlots {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown time slot %q", s)
}

func (t TimeSlot) Valid() bool {
	_, ok := slotRanges[t]
	return ok
}

func (t TimeSlot) Range() ClockRange {
	return slotRanges[t]
}

// Label renders the slot with its clock range, e.g. "Night (21:00-06:00)".
func (t TimeSlot) Label() string {
	r, ok := slotRanges[t]
	if !ok {
		return string(t)
	}
	return fmt.Sprintf("%s (%s-%s)", t, r.Start, r.End)
}
