package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testStations = []entities.Station{
	{ID: "a", Name: "Alpha", AvailableBikes: 4, DemandLevel: entities.DemandLow},
	{ID: "b", Name: "Bravo", AvailableBikes: 9, DemandLevel: entities.DemandHigh},
}

func TestCatalogLoad(t *testing.T) {
	src := &fakeStations{stations: testStations}
	catalog := NewCatalogService(src, zap.NewNop())

	_, ok := catalog.FindByID("a")
	assert.False(t, ok, "nothing before the first load")
	assert.Equal(t, CatalogIdle, catalog.Status())

	require.NoError(t, catalog.Load(context.Background()))
	assert.Equal(t, CatalogReady, catalog.Status())
	st, ok := catalog.FindByID("b")
	require.True(t, ok)
	assert.Equal(t, entities.DemandHigh, st.DemandLevel)
	_, ok = catalog.FindByID("zzz")
	assert.False(t, ok)
}

func TestCatalogFailureKeepsPreviousList(t *testing.T) {
	src := &fakeStations{stations: testStations}
	catalog := NewCatalogService(src, zap.NewNop())
	require.NoError(t, catalog.Load(context.Background()))

	src.err = apperrors.NewHTTPError(500, "")
	assert.Error(t, catalog.Load(context.Background()))
	assert.Equal(t, CatalogError, catalog.Status())
	assert.Equal(t, msgStationsFailed, catalog.Err())
	assert.Len(t, catalog.Stations(), 2)

	src.err = fmt.Errorf("stations: %w", apperrors.ErrMalformedPayload)
	assert.Error(t, catalog.Load(context.Background()))
	assert.Equal(t, msgStationsMalformed, catalog.Err())
	assert.Len(t, catalog.Stations(), 2)

	src.err = nil
	src.stations = testStations[:1]
	require.NoError(t, catalog.Load(context.Background()))
	assert.Empty(t, catalog.Err())
	assert.Len(t, catalog.Stations(), 1, "a successful load replaces the list wholesale")
}

func TestCatalogDropsStaleLoad(t *testing.T) {
	g := newGate[[]entities.Station]()
	catalog := NewCatalogService(&gatedStations{g: g}, zap.NewNop())

	firstDone := make(chan struct{})
	go func() {
		catalog.Load(context.Background())
		close(firstDone)
	}()
	<-g.started

	secondDone := make(chan struct{})
	go func() {
		catalog.Load(context.Background())
		close(secondDone)
	}()
	<-g.started

	// The newer load resolves first; the older one must not overwrite it.
	g.release(1, testStations)
	<-secondDone
	g.release(0, testStations[:1])
	<-firstDone

	assert.Len(t, catalog.Stations(), 2)
	assert.Equal(t, CatalogReady, catalog.Status())
}

func TestCatalogNewerFailureKeepsOlderSuccess(t *testing.T) {
	g := newGate[stationLoad]()
	catalog := NewCatalogService(&gatedLoads{g: g}, zap.NewNop())

	firstDone := make(chan struct{})
	go func() {
		catalog.Load(context.Background())
		close(firstDone)
	}()
	<-g.started

	secondDone := make(chan struct{})
	go func() {
		catalog.Load(context.Background())
		close(secondDone)
	}()
	<-g.started

	g.release(1, stationLoad{err: errors.New("timeout")})
	<-secondDone
	assert.Equal(t, CatalogError, catalog.Status())

	g.release(0, stationLoad{stations: testStations})
	<-firstDone

	assert.Len(t, catalog.Stations(), 2)
	assert.Equal(t, CatalogReady, catalog.Status())
	assert.Empty(t, catalog.Err())
}
