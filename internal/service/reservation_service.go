package service

import (
	"context"
	"fmt"
	"sync"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"

	"go.uber.org/zap"
)

const (
	msgCreateFailed = "Reservation failed. Please try again."
	msgUpdateFailed = "Failed to update reservation. Please try again."
	msgCancelFailed = "Failed to cancel reservation. Please try again."
)

type ReservationAPI interface {
	CreateReservation(ctx context.Context, req entities.ReservationRequest) (*entities.Reservation, error)
	ListReservations(ctx context.Context, userEmail string) ([]entities.Reservation, error)
	UpdateReservation(ctx context.Context, id string, upd entities.ReservationUpdate) error
	CancelReservation(ctx context.Context, id, userEmail string) error
}

type Receipter interface {
	SendReceipt(ctx context.Context, res entities.Reservation, userEmail string) error
}

// ReservationService drives create, edit and cancel against the backend.
// The held list is never patched locally: every successful mutation is
// followed by a fresh read of the user's reservations.
type ReservationService struct {
	api       ReservationAPI
	snapshots *SnapshotStore
	receipts  Receipter
	logger    *zap.Logger

	mu           sync.RWMutex
	reservations []entities.Reservation
	issued       uint64
	applied      uint64

	pending sync.WaitGroup
}

func NewReservationService(api ReservationAPI, snapshots *SnapshotStore, logger *zap.Logger) *ReservationService {
	return &ReservationService{api: api, snapshots: snapshots, logger: logger}
}

// WithReceipts makes successful bookings hand a receipt to r.
func (s *ReservationService) WithReceipts(r Receipter) *ReservationService {
	s.receipts = r
	return s
}

// Create submits a new booking. Missing fields fail locally without a
// request. On success the snapshot is replaced and the list refetched; on
// failure the attempt goes back to editing with an inline message.
func (s *ReservationService) Create(ctx context.Context, a *Attempt, userEmail string) (*entities.Reservation, error) {
	a.mu.Lock()
	if a.phase != PhaseEditing || a.reservation != nil {
		phase := a.phase
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot create while %s", ErrInvalidTransition, phase)
	}
	form := a.form
	if err := form.Validate(); err != nil {
		a.errMsg = apperrors.Message(err, "")
		a.mu.Unlock()
		return nil, err
	}
	a.transition(PhaseSubmitting)
	a.errMsg = ""
	a.mu.Unlock()

	res, err := s.api.CreateReservation(ctx, entities.ReservationRequest{
		Date:      form.Date,
		TimeSlot:  form.TimeSlot,
		StationID: form.StationID,
		Demand:    form.Demand,
		UserEmail: userEmail,
	})

	a.mu.Lock()
	if err != nil {
		a.transition(PhaseFailed)
		a.transition(PhaseEditing)
		a.errMsg = apperrors.Message(err, msgCreateFailed)
		a.mu.Unlock()
		s.logger.Warn("reservation failed", zap.String("user_email", userEmail), zap.Error(err))
		return nil, err
	}
	// Price and status are shown exactly as returned.
	confirmed := *res
	if confirmed.StationID == "" {
		confirmed.StationID = form.StationID
	}
	if confirmed.Demand == "" {
		confirmed.Demand = form.Demand
	}
	a.transition(PhaseConfirmed)
	a.reservation = &confirmed
	a.mu.Unlock()

	s.logger.Info("reservation confirmed",
		zap.String("reservation_id", confirmed.ID),
		zap.Int("price", confirmed.Price))

	snap := entities.SnapshotOf(confirmed)
	s.snapshots.Set(&snap)
	s.Refresh(ctx, userEmail)
	s.sendReceipt(confirmed, userEmail)

	out := confirmed
	return &out, nil
}

func (s *ReservationService) sendReceipt(res entities.Reservation, userEmail string) {
	if s.receipts == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.receipts.SendReceipt(context.Background(), res, userEmail); err != nil {
			s.logger.Warn("receipt delivery failed", zap.String("reservation_id", res.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until queued receipts have been handed off.
func (s *ReservationService) Wait() {
	s.pending.Wait()
}

// Refresh reads the user's reservations. Without an identity it clears the
// held list and makes no request. A failed read is logged and leaves the
// held list as it was; the error is returned for logging only.
//
// Reads are tagged in issue order and a result is applied only if no later
// read has been applied already, so overlapping refreshes cannot roll the
// list back.
func (s *ReservationService) Refresh(ctx context.Context, userEmail string) ([]entities.Reservation, error) {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	if userEmail == "" {
		s.applied = gen
		s.reservations = nil
		s.mu.Unlock()
		return []entities.Reservation{}, nil
	}
	s.mu.Unlock()

	list, err := s.api.ListReservations(ctx, userEmail)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("failed to refresh reservations",
			zap.String("user_email", userEmail),
			zap.Uint64("generation", gen),
			zap.Error(err))
		return s.copyList(), err
	}
	if gen < s.applied {
		s.logger.Debug("discarding stale reservation list", zap.Uint64("generation", gen))
		return s.copyList(), nil
	}
	s.applied = gen
	s.reservations = append([]entities.Reservation(nil), list...)
	return s.copyList(), nil
}

func (s *ReservationService) copyList() []entities.Reservation {
	out := make([]entities.Reservation, len(s.reservations))
	copy(out, s.reservations)
	return out
}

// Reservations returns the list from the last applied refresh.
func (s *ReservationService) Reservations() []entities.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyList()
}

// Find looks a reservation up in the held list.
func (s *ReservationService) Find(id string) (entities.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reservations {
		if r.ID == id {
			return r, true
		}
	}
	return entities.Reservation{}, false
}

// Update submits an open edit flow. Only date, slot and station are sent;
// the backend recomputes price and demand. Success closes the flow, failure
// keeps it open with an inline message.
func (s *ReservationService) Update(ctx context.Context, a *Attempt, userEmail string) error {
	a.mu.Lock()
	if a.phase != PhaseEditing || a.reservation == nil {
		phase := a.phase
		a.mu.Unlock()
		return fmt.Errorf("%w: cannot update while %s", ErrInvalidTransition, phase)
	}
	id := a.reservation.ID
	form := a.form
	if err := form.Validate(); err != nil {
		a.errMsg = apperrors.Message(err, "")
		a.mu.Unlock()
		return err
	}
	a.transition(PhaseSubmitting)
	a.errMsg = ""
	a.mu.Unlock()

	err := s.api.UpdateReservation(ctx, id, entities.ReservationUpdate{
		UserEmail: userEmail,
		Date:      form.Date,
		TimeSlot:  form.TimeSlot,
		StationID: form.StationID,
	})

	a.mu.Lock()
	if err != nil {
		a.transition(PhaseFailed)
		a.transition(PhaseEditing)
		a.errMsg = apperrors.Message(err, msgUpdateFailed)
		a.mu.Unlock()
		s.logger.Warn("reservation update failed", zap.String("reservation_id", id), zap.Error(err))
		return err
	}
	a.transition(PhaseConfirmed)
	a.editOpen = false
	a.mu.Unlock()

	s.Refresh(ctx, userEmail)
	if fresh, ok := s.Find(id); ok {
		a.mu.Lock()
		a.reservation = &fresh
		a.mu.Unlock()
	}
	return nil
}

// Cancel deletes a confirmed reservation on the backend. Nothing is removed
// locally until the following refresh.
func (s *ReservationService) Cancel(ctx context.Context, a *Attempt, userEmail string) error {
	a.mu.Lock()
	if err := a.transition(PhaseCancelling); err != nil {
		a.mu.Unlock()
		return err
	}
	id := a.reservation.ID
	a.errMsg = ""
	a.mu.Unlock()

	err := s.api.CancelReservation(ctx, id, userEmail)

	a.mu.Lock()
	if err != nil {
		a.transition(PhaseFailed)
		a.transition(PhaseConfirmed)
		a.errMsg = apperrors.Message(err, msgCancelFailed)
		a.mu.Unlock()
		s.logger.Error("reservation cancel failed", zap.String("reservation_id", id), zap.Error(err))
		return err
	}
	a.transition(PhaseCancelled)
	a.reservation.Status = entities.StatusCancelled
	a.mu.Unlock()

	s.Refresh(ctx, userEmail)
	return nil
}
