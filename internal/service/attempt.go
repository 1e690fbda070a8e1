package service

import (
	"errors"
	"fmt"
	"sync"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"
)

type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseConfirmed  Phase = "confirmed"
	PhaseFailed     Phase = "failed"
	PhaseCancelling Phase = "cancelling"
	PhaseCancelled  Phase = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid reservation state transition")

var transitions = map[Phase][]Phase{
	PhaseEditing:    {PhaseSubmitting, PhaseConfirmed},
	PhaseSubmitting: {PhaseConfirmed, PhaseFailed},
	PhaseFailed:     {PhaseEditing, PhaseConfirmed},
	PhaseConfirmed:  {PhaseEditing, PhaseCancelling},
	PhaseCancelling: {PhaseCancelled, PhaseFailed},
}

// ReservationForm is the user's current selection.
type ReservationForm struct {
	Date      entities.Date
	TimeSlot  entities.TimeSlot
	StationID string
	Demand    entities.DemandLevel
}

// Validate reports the first missing required field.
func (f ReservationForm) Validate() error {
	switch {
	case f.Date.IsZero():
		return apperrors.NewValidationError("date", "Please select a date.")
	case f.TimeSlot == "":
		return apperrors.NewValidationError("time_slot", "Please select a time slot.")
	case f.StationID == "":
		return apperrors.NewValidationError("station_id", "Please select a station.")
	}
	return nil
}

// Attempt tracks one reservation through
// editing -> submitting -> confirmed|failed, and a confirmed one through
// editing again (update) or cancelling -> cancelled|failed.
// A failed submit falls back to editing; a failed cancel to confirmed.
type Attempt struct {
	mu          sync.Mutex
	phase       Phase
	form        ReservationForm
	reservation *entities.Reservation
	errMsg      string
	editOpen    bool
}

// NewAttempt starts a new booking in the editing phase.
func NewAttempt(form ReservationForm) *Attempt {
	return &Attempt{phase: PhaseEditing, form: form}
}

// AttemptFor wraps an existing reservation, ready to be edited or cancelled.
func AttemptFor(res entities.Reservation) *Attempt {
	return &Attempt{
		phase:       PhaseConfirmed,
		reservation: &res,
		form:        formOf(res),
	}
}

func formOf(res entities.Reservation) ReservationForm {
	return ReservationForm{
		Date:      res.Date,
		TimeSlot:  res.TimeSlot,
		StationID: res.StationID,
		Demand:    res.Demand,
	}
}

func (a *Attempt) transition(to Phase) error {
	for _, next := range transitions[a.phase] {
		if next == to {
			a.phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.phase, to)
}

// Edit opens the edit flow on a confirmed reservation, prefilled with its
// current values.
func (a *Attempt) Edit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.transition(PhaseEditing); err != nil {
		return err
	}
	a.form = formOf(*a.reservation)
	a.editOpen = true
	a.errMsg = ""
	return nil
}

// CloseEdit abandons an open edit flow without submitting.
func (a *Attempt) CloseEdit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reservation == nil {
		return fmt.Errorf("%w: nothing to return to", ErrInvalidTransition)
	}
	if err := a.transition(PhaseConfirmed); err != nil {
		return err
	}
	a.editOpen = false
	a.errMsg = ""
	return nil
}

// SetForm replaces the selection while editing.
func (a *Attempt) SetForm(f ReservationForm) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.phase != PhaseEditing {
		return fmt.Errorf("%w: form is read-only while %s", ErrInvalidTransition, a.phase)
	}
	a.form = f
	return nil
}

func (a *Attempt) Form() ReservationForm {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

func (a *Attempt) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Err is the inline message from the last failed action, or "".
func (a *Attempt) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

func (a *Attempt) EditOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editOpen
}

// Reservation returns the confirmed record, or nil before confirmation.
func (a *Attempt) Reservation() *entities.Reservation {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reservation == nil {
		return nil
	}
	res := *a.reservation
	return &res
}
