package service

import (
	"context"
	"encoding/json"
	"sync"

	"bikeshare/internal/entities"
	"bikeshare/internal/repository"

	"go.uber.org/zap"
)

const DefaultSnapshotKey = "latestReservation"

// SnapshotStore is the single process-wide holder of the latest confirmed
// reservation. Construct one at startup and pass it to whatever needs it.
//
// The durable slot is read once, on first access. Writes to it are best
// effort; readers always see the in-memory value.
type SnapshotStore struct {
	kv     repository.KeyValueStore
	key    string
	logger *zap.Logger

	hydrate sync.Once
	// writeMu keeps the durable slot in step with current.
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *entities.LatestReservationSnapshot
	nextID  int
	readers map[int]func(*entities.LatestReservationSnapshot)
}

func NewSnapshotStore(kv repository.KeyValueStore, key string, logger *zap.Logger) *SnapshotStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &SnapshotStore{
		kv:      kv,
		key:     key,
		logger:  logger,
		readers: make(map[int]func(*entities.LatestReservationSnapshot)),
	}
}

func (s *SnapshotStore) load() {
	s.hydrate.Do(func() {
		raw, ok, err := s.kv.Get(context.Background(), s.key)
		if err != nil {
			s.logger.Warn("could not read stored snapshot", zap.Error(err))
			return
		}
		if !ok {
			return
		}
		snap, ok := decodeSnapshot(raw)
		if !ok {
			s.logger.Debug("discarding unreadable stored snapshot", zap.String("key", s.key))
			return
		}
		s.mu.Lock()
		if s.current == nil {
			s.current = snap
		}
		s.mu.Unlock()
	})
}

// decodeSnapshot rejects anything that is not a readable confirmed snapshot.
func decodeSnapshot(raw string) (*entities.LatestReservationSnapshot, bool) {
	var snap entities.LatestReservationSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, false
	}
	if snap.Status != entities.StatusConfirmed {
		return nil, false
	}
	return &snap, true
}

// Get returns a copy of the current snapshot, or nil.
func (s *SnapshotStore) Get() *entities.LatestReservationSnapshot {
	s.load()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	snap := *s.current
	return &snap
}

// Set replaces the snapshot; nil clears it. Readers are notified before Set
// returns. The status is always stored as Confirmed.
func (s *SnapshotStore) Set(snap *entities.LatestReservationSnapshot) {
	// Hydrate first so a late first read cannot overwrite this value.
	s.load()

	var stored *entities.LatestReservationSnapshot
	if snap != nil {
		cp := *snap
		cp.Status = entities.StatusConfirmed
		stored = &cp
	}

	s.writeMu.Lock()
	s.mu.Lock()
	s.current = stored
	readers := make([]func(*entities.LatestReservationSnapshot), 0, len(s.readers))
	for _, fn := range s.readers {
		readers = append(readers, fn)
	}
	s.mu.Unlock()

	s.persist(stored)
	s.writeMu.Unlock()

	for _, fn := range readers {
		if stored == nil {
			fn(nil)
			continue
		}
		cp := *stored
		fn(&cp)
	}
}

func (s *SnapshotStore) persist(snap *entities.LatestReservationSnapshot) {
	ctx := context.Background()
	if snap == nil {
		if err := s.kv.Delete(ctx, s.key); err != nil {
			s.logger.Warn("could not clear stored snapshot", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("could not encode snapshot", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("could not store snapshot", zap.Error(err))
	}
}

// Subscribe registers fn to receive every new value. The returned func
// removes it.
func (s *SnapshotStore) Subscribe(fn func(*entities.LatestReservationSnapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.readers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.readers, id)
		s.mu.Unlock()
	}
}
