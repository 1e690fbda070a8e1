package service

import (
	"context"
	"errors"
	"sync"

	"bikeshare/internal/entities"
)

type fakeAPI struct {
	mu        sync.Mutex
	calls     map[string]int
	stored    []entities.Reservation
	createErr error
	listErr   error
	updateErr error
	cancelErr error
	// listHook, when set, replaces ListReservations.
	listHook func(ctx context.Context, email string) ([]entities.Reservation, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) CreateReservation(_ context.Context, req entities.ReservationRequest) (*entities.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createErr != nil {
		return nil, f.createErr
	}
	res := entities.Reservation{
		ID:          "res-" + req.StationID,
		StationName: "Station " + req.StationID,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		// The server disagrees with the client's formula on purpose.
		Price:     999,
		Status:    entities.StatusConfirmed,
		UserEmail: req.UserEmail,
	}
	f.stored = append(f.stored, res)
	return &res, nil
}

func (f *fakeAPI) ListReservations(ctx context.Context, email string) ([]entities.Reservation, error) {
	f.mu.Lock()
	f.calls["list"]++
	hook := f.listHook
	err := f.listErr
	out := append([]entities.Reservation(nil), f.stored...)
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeAPI) UpdateReservation(_ context.Context, id string, upd entities.ReservationUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.stored {
		if f.stored[i].ID == id {
			f.stored[i].Date = upd.Date
			f.stored[i].TimeSlot = upd.TimeSlot
			f.stored[i].StationID = upd.StationID
			f.stored[i].Price = 123
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeAPI) CancelReservation(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["cancel"]++
	if f.cancelErr != nil {
		return f.cancelErr
	}
	for i := range f.stored {
		if f.stored[i].ID == id {
			f.stored = append(f.stored[:i], f.stored[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeStations struct {
	mu       sync.Mutex
	stations []entities.Station
	err      error
	calls    int
}

func (f *fakeStations) ListStations(context.Context) ([]entities.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]entities.Station(nil), f.stations...), nil
}

// failingKV returns errors from every write.
type failingKV struct {
	value string
	ok    bool
}

func (f *failingKV) Get(context.Context, string) (string, bool, error) {
	return f.value, f.ok, nil
}

func (f *failingKV) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func (f *failingKV) Delete(context.Context, string) error {
	return errors.New("quota exceeded")
}

// gate parks each call until the test releases it, so tests can decide the
// order in which overlapping requests resolve.
type gate[T any] struct {
	mu      sync.Mutex
	pending []chan T
	started chan struct{}
}

func newGate[T any]() *gate[T] {
	return &gate[T]{started: make(chan struct{}, 8)}
}

func (g *gate[T]) wait() T {
	ch := make(chan T)
	g.mu.Lock()
	g.pending = append(g.pending, ch)
	g.mu.Unlock()
	g.started <- struct{}{}
	return <-ch
}

// release resolves the i-th call (0-based, in arrival order) with v.
func (g *gate[T]) release(i int, v T) {
	g.mu.Lock()
	ch := g.pending[i]
	g.mu.Unlock()
	ch <- v
}

type stationLoad struct {
	stations []entities.Station
	err      error
}

type gatedLoads struct {
	g *gate[stationLoad]
}

func (s *gatedLoads) ListStations(context.Context) ([]entities.Station, error) {
	r := s.g.wait()
	return r.stations, r.err
}

type gatedStations struct {
	g *gate[[]entities.Station]
}

func (s *gatedStations) ListStations(context.Context) ([]entities.Station, error) {
	return s.g.wait(), nil
}
