package service

import (
	"context"
	"errors"
	"sync"

	"bikeshare/internal/entities"
	apperrors "bikeshare/internal/errors"

	"go.uber.org/zap"
)

type StationSource interface {
	ListStations(ctx context.Context) ([]entities.Station, error)
}

type CatalogStatus string

const (
	CatalogIdle    CatalogStatus = "idle"
	CatalogLoading CatalogStatus = "loading"
	CatalogReady   CatalogStatus = "ready"
	CatalogError   CatalogStatus = "error"
)

const (
	msgStationsFailed    = "Failed to load stations. Please try again."
	msgStationsMalformed = "Station data has an unexpected format."
)

// CatalogService holds the station list with live demand and availability.
// A failed load keeps the previous list so a populated view is not blanked.
type CatalogService struct {
	source StationSource
	logger *zap.Logger

	mu       sync.RWMutex
	stations []entities.Station
	status   CatalogStatus
	errMsg   string
	issued   uint64
	applied  uint64
}

func NewCatalogService(source StationSource, logger *zap.Logger) *CatalogService {
	return &CatalogService{source: source, logger: logger, status: CatalogIdle}
}

// Load fetches the full list and replaces the held one. Results of a load
// that started before an already-applied one are dropped; failed loads only
// set the error state.
func (s *CatalogService) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.status = CatalogLoading
	s.mu.Unlock()

	stations, err := s.source.ListStations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// A failure never supersedes data, so an older load still in
		// flight may yet apply.
		if gen >= s.applied {
			s.status = CatalogError
			s.errMsg = stationsErrorMessage(err)
		}
		s.logger.Warn("failed to load stations", zap.Uint64("generation", gen), zap.Error(err))
		return err
	}
	if gen < s.applied {
		s.logger.Debug("discarding stale station load", zap.Uint64("generation", gen))
		return nil
	}
	s.applied = gen

	s.stations = append([]entities.Station(nil), stations...)
	s.status = CatalogReady
	s.errMsg = ""
	s.logger.Debug("stations loaded", zap.Int("count", len(stations)))
	return nil
}

func stationsErrorMessage(err error) string {
	if errors.Is(err, apperrors.ErrMalformedPayload) {
		return msgStationsMalformed
	}
	return apperrors.Message(err, msgStationsFailed)
}

// FindByID returns the station with the given id, if loaded.
func (s *CatalogService) FindByID(id string) (entities.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stations {
		if st.ID == id {
			return st, true
		}
	}
	return entities.Station{}, false
}

func (s *CatalogService) Stations() []entities.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Station(nil), s.stations...)
}

func (s *CatalogService) Status() CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the message of the last failed load, or "" after a success.
func (s *CatalogService) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
