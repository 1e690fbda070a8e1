package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"
	"bikeshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rider = "rider@example.com"

func newTestService() (*ReservationService, *fakeAPI, *SnapshotStore) {
	api := newFakeAPI()
	snaps := NewSnapshotStore(repository.NewMemoryStore(), "", zap.NewNop())
	return NewReservationService(api, snaps, zap.NewNop()), api, snaps
}

func validForm() ReservationForm {
	return ReservationForm{
		Date:      entities.Date{Year: 2026, Month: 10, Day: 20},
		TimeSlot:  entities.SlotEvening,
		StationID: "a",
		Demand:    entities.DemandLow,
	}
}

func TestCreateValidationNeverCallsServer(t *testing.T) {
	svc, api, snaps := newTestService()

	cases := []struct {
		field  string
		mutate func(*ReservationForm)
	}{
		{"date", func(f *ReservationForm) { f.Date = entities.Date{} }},
		{"time_slot", func(f *ReservationForm) { f.TimeSlot = "" }},
		{"station_id", func(f *ReservationForm) { f.StationID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			form := validForm()
			tc.mutate(&form)
			a := NewAttempt(form)

			_, err := svc.Create(context.Background(), a, rider)
			var valErr *apperrors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tc.field, valErr.Field)
			assert.Equal(t, PhaseEditing, a.Phase())
			assert.Equal(t, valErr.Message, a.Err())
		})
	}
	assert.Zero(t, api.total())
	assert.Nil(t, snaps.Get())
}

func TestCreateUpdatesSnapshotAndList(t *testing.T) {
	svc, api, snaps := newTestService()
	a := NewAttempt(validForm())

	res, err := svc.Create(context.Background(), a, rider)
	require.NoError(t, err)
	assert.Equal(t, PhaseConfirmed, a.Phase())
	assert.Equal(t, 999, res.Price, "the server's price is kept over the local formula")

	snap := snaps.Get()
	require.NotNil(t, snap)
	assert.Equal(t, res.ID, snap.ReservationID)
	assert.Equal(t, 999, snap.Price)
	assert.Equal(t, entities.StatusConfirmed, snap.Status)
	assert.Equal(t, "a", snap.StationID)
	assert.Equal(t, entities.DemandLow, snap.Demand)

	assert.Equal(t, 1, api.count("list"))
	list := svc.Reservations()
	require.Len(t, list, 1)
	assert.Equal(t, res.ID, list[0].ID)

	_, err = svc.Create(context.Background(), a, rider)
	assert.ErrorIs(t, err, ErrInvalidTransition, "a confirmed attempt cannot be submitted again")
}

func TestCreateFailureReturnsToEditing(t *testing.T) {
	svc, api, snaps := newTestService()

	api.createErr = apperrors.NewHTTPError(http.StatusConflict, "No bikes left")
	a := NewAttempt(validForm())
	_, err := svc.Create(context.Background(), a, rider)
	require.Error(t, err)
	assert.Equal(t, PhaseEditing, a.Phase())
	assert.Equal(t, "No bikes left", a.Err())
	assert.Nil(t, snaps.Get())
	assert.Zero(t, api.count("list"))

	api.createErr = errors.New("connection reset")
	_, err = svc.Create(context.Background(), a, rider)
	require.Error(t, err)
	assert.Equal(t, msgCreateFailed, a.Err())

	api.createErr = nil
	_, err = svc.Create(context.Background(), a, rider)
	require.NoError(t, err, "the same attempt can be retried")
	assert.Empty(t, a.Err())
}

func TestRefreshWithoutIdentity(t *testing.T) {
	svc, api, _ := newTestService()
	list, err := svc.Refresh(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, api.total())
}

func TestRefreshFailureKeepsList(t *testing.T) {
	svc, api, _ := newTestService()
	_, err := svc.Create(context.Background(), NewAttempt(validForm()), rider)
	require.NoError(t, err)

	api.listErr = errors.New("timeout")
	list, err := svc.Refresh(context.Background(), rider)
	assert.Error(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, svc.Reservations(), 1)
}

func TestRefreshIgnoresOutOfOrderResults(t *testing.T) {
	svc, api, _ := newTestService()
	g := newGate[[]entities.Reservation]()
	api.listHook = func(context.Context, string) ([]entities.Reservation, error) {
		return g.wait(), nil
	}

	stale := []entities.Reservation{{ID: "old"}}
	fresh := []entities.Reservation{{ID: "new"}}

	firstDone := make(chan struct{})
	go func() {
		svc.Refresh(context.Background(), rider)
		close(firstDone)
	}()
	<-g.started
	secondDone := make(chan struct{})
	go func() {
		svc.Refresh(context.Background(), rider)
		close(secondDone)
	}()
	<-g.started

	g.release(1, fresh)
	<-secondDone
	g.release(0, stale)
	<-firstDone

	list := svc.Reservations()
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)
}

func TestUpdateSuccessClosesEditFlow(t *testing.T) {
	svc, api, _ := newTestService()
	created, err := svc.Create(context.Background(), NewAttempt(validForm()), rider)
	require.NoError(t, err)

	a := AttemptFor(*created)
	require.NoError(t, a.Edit())
	assert.True(t, a.EditOpen())

	form := a.Form()
	form.TimeSlot = entities.SlotNight
	require.NoError(t, a.SetForm(form))

	require.NoError(t, svc.Update(context.Background(), a, rider))
	assert.Equal(t, PhaseConfirmed, a.Phase())
	assert.False(t, a.EditOpen())
	assert.Equal(t, 2, api.count("list"))
	assert.Equal(t, 123, a.Reservation().Price, "price is taken from the refetched list")
	assert.Equal(t, entities.SlotNight, svc.Reservations()[0].TimeSlot)
}

func TestUpdateFailureKeepsEditFlowOpen(t *testing.T) {
	svc, api, _ := newTestService()
	created, err := svc.Create(context.Background(), NewAttempt(validForm()), rider)
	require.NoError(t, err)

	a := AttemptFor(*created)
	require.NoError(t, a.Edit())

	api.updateErr = apperrors.NewHTTPError(http.StatusBadRequest, "")
	require.Error(t, svc.Update(context.Background(), a, rider))
	assert.Equal(t, PhaseEditing, a.Phase())
	assert.True(t, a.EditOpen())
	assert.Equal(t, msgUpdateFailed, a.Err())
	assert.Equal(t, 1, api.count("list"), "no refetch after a failed update")
}

func TestUpdateValidation(t *testing.T) {
	svc, api, _ := newTestService()
	a := AttemptFor(entities.Reservation{ID: "r1", Date: validForm().Date, TimeSlot: entities.SlotMorning})
	require.NoError(t, a.Edit())

	err := svc.Update(context.Background(), a, rider)
	var valErr *apperrors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "station_id", valErr.Field)
	assert.Zero(t, api.total())
}

func TestUpdateRequiresOpenEdit(t *testing.T) {
	svc, _, _ := newTestService()
	a := AttemptFor(entities.Reservation{ID: "r1"})
	assert.ErrorIs(t, svc.Update(context.Background(), a, rider), ErrInvalidTransition)
	assert.ErrorIs(t, svc.Update(context.Background(), NewAttempt(validForm()), rider), ErrInvalidTransition)
}

func TestCancelRemovesAfterRefetch(t *testing.T) {
	svc, api, snaps := newTestService()
	created, err := svc.Create(context.Background(), NewAttempt(validForm()), rider)
	require.NoError(t, err)

	a := AttemptFor(*created)
	require.NoError(t, svc.Cancel(context.Background(), a, rider))
	assert.Equal(t, PhaseCancelled, a.Phase())
	assert.Empty(t, svc.Reservations())
	assert.Equal(t, 2, api.count("list"))

	// The snapshot is not a cancellation tracker.
	require.NotNil(t, snaps.Get())
	assert.Equal(t, entities.StatusConfirmed, snaps.Get().Status)

	assert.ErrorIs(t, svc.Cancel(context.Background(), a, rider), ErrInvalidTransition)
}

func TestCancelFailureLeavesListUntouched(t *testing.T) {
	svc, api, _ := newTestService()
	created, err := svc.Create(context.Background(), NewAttempt(validForm()), rider)
	require.NoError(t, err)

	api.cancelErr = errors.New("boom")
	a := AttemptFor(*created)
	require.Error(t, svc.Cancel(context.Background(), a, rider))
	assert.Equal(t, PhaseConfirmed, a.Phase())
	assert.Equal(t, msgCancelFailed, a.Err())
	assert.Len(t, svc.Reservations(), 1)
	assert.Equal(t, 1, api.count("list"))
}

func TestAttemptTransitions(t *testing.T) {
	a := NewAttempt(validForm())
	assert.ErrorIs(t, a.Edit(), ErrInvalidTransition)
	assert.ErrorIs(t, a.CloseEdit(), ErrInvalidTransition)

	b := AttemptFor(entities.Reservation{ID: "r1", StationID: "a"})
	require.NoError(t, b.Edit())
	require.NoError(t, b.CloseEdit())
	assert.Equal(t, PhaseConfirmed, b.Phase())
	assert.ErrorIs(t, b.SetForm(validForm()), ErrInvalidTransition)
}

type recordingReceipter struct {
	got []entities.Reservation
	err error
}

func (r *recordingReceipter) SendReceipt(_ context.Context, res entities.Reservation, _ string) error {
	r.got = append(r.got, res)
	return r.err
}

func TestCreateSendsReceipt(t *testing.T) {
	svc, _, _ := newTestService()
	rec := &recordingReceipter{err: errors.New("smtp down")}
	svc.WithReceipts(rec)

	res, err := svc.Create(context.Background(), NewAttempt(validForm()), rider)
	require.NoError(t, err, "receipt failures are not surfaced")
	svc.Wait()
	require.Len(t, rec.got, 1)
	assert.Equal(t, res.ID, rec.got[0].ID)
}
