// Package positions holds the live position set the risk engine analyses.
package positions

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/rs/zerolog"
)

const moduleName = "positions"

// DefaultHistoryLength is the per-position market value retention
const DefaultHistoryLength = 252

var (
	// ErrPositionNotFound is returned when removing or reading an unknown position
	ErrPositionNotFound = errors.New("position not found")
	// ErrInvalidPosition is returned when an upsert fails validation
	ErrInvalidPosition = errors.New("invalid position")
)

// state is an immutable view of the store. It is replaced wholesale on every write.
type state struct {
	positions map[string]domain.Position
	histories map[string][]float64
	ids       []string // sorted
}

// Snapshot is a frozen copy of the store taken at one instant
type Snapshot struct {
	TakenAt   time.Time            `json:"taken_at"`
	Histories map[string][]float64 `json:"histories"`
	Positions []domain.Position    `json:"positions"`
}

// History returns the market value history of a position in the snapshot
func (s Snapshot) History(id string) []float64 {
	return s.Histories[id]
}

// Store keeps positions under a copy-on-write discipline.
// Readers load the current state without locking; writers serialize on mu,
// build a new state and publish it atomically.
type Store struct {
	current    atomic.Pointer[state]
	bus        *events.Bus
	metrics    *metrics.Registry
	now        func() time.Time
	log        zerolog.Logger
	mu         sync.Mutex
	historyLen int
}

// NewStore creates an empty store. historyLen <= 0 selects DefaultHistoryLength.
func NewStore(historyLen int, bus *events.Bus, m *metrics.Registry, log zerolog.Logger) *Store {
	if historyLen <= 0 {
		historyLen = DefaultHistoryLength
	}
	s := &Store{
		bus:        bus,
		metrics:    m,
		now:        time.Now,
		log:        log.With().Str("component", "position_store").Logger(),
		historyLen: historyLen,
	}
	s.current.Store(&state{
		positions: map[string]domain.Position{},
		histories: map[string][]float64{},
	})
	return s
}

// Upsert validates p, recomputes its derived fields and replaces any position
// with the same ID. The new market value is appended to the position's history.
func (s *Store) Upsert(p domain.Position) (domain.Position, error) {
	if err := validate(p); err != nil {
		return domain.Position{}, err
	}
	p = p.WithDerived()
	if p.LastUpdated.IsZero() {
		p.LastUpdated = s.now()
	}

	s.mu.Lock()
	old := s.current.Load()

	next := &state{
		positions: make(map[string]domain.Position, len(old.positions)+1),
		histories: make(map[string][]float64, len(old.histories)+1),
	}
	for id, pos := range old.positions {
		next.positions[id] = pos
	}
	for id, h := range old.histories {
		next.histories[id] = h
	}

	_, existed := old.positions[p.ID]
	next.positions[p.ID] = p
	next.histories[p.ID] = appendBounded(old.histories[p.ID], p.MarketValue, s.historyLen)
	if existed {
		next.ids = old.ids
	} else {
		next.ids = insertSorted(old.ids, p.ID)
	}

	s.current.Store(next)
	count := len(next.ids)
	s.mu.Unlock()

	s.metrics.SetPositions(count)
	s.bus.Publish(moduleName, &events.PositionUpdatedData{
		PositionID:  p.ID,
		Symbol:      p.Symbol,
		MarketValue: p.MarketValue,
	})
	s.log.Debug().
		Str("position_id", p.ID).
		Str("symbol", p.Symbol).
		Float64("market_value", p.MarketValue).
		Msg("Position upserted")

	return p, nil
}

// Remove deletes a position and its history
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	old := s.current.Load()
	removed, ok := old.positions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("failed to remove %q: %w", id, ErrPositionNotFound)
	}

	next := &state{
		positions: make(map[string]domain.Position, len(old.positions)),
		histories: make(map[string][]float64, len(old.histories)),
		ids:       make([]string, 0, len(old.ids)),
	}
	for pid, pos := range old.positions {
		if pid != id {
			next.positions[pid] = pos
		}
	}
	for pid, h := range old.histories {
		if pid != id {
			next.histories[pid] = h
		}
	}
	for _, pid := range old.ids {
		if pid != id {
			next.ids = append(next.ids, pid)
		}
	}

	s.current.Store(next)
	count := len(next.ids)
	s.mu.Unlock()

	s.metrics.SetPositions(count)
	s.bus.Publish(moduleName, &events.PositionRemovedData{PositionID: id, Symbol: removed.Symbol})
	s.log.Debug().Str("position_id", id).Msg("Position removed")
	return nil
}

// Get returns one position
func (s *Store) Get(id string) (domain.Position, bool) {
	p, ok := s.current.Load().positions[id]
	return p, ok
}

// All returns every position sorted by ID
func (s *Store) All() []domain.Position {
	st := s.current.Load()
	out := make([]domain.Position, 0, len(st.ids))
	for _, id := range st.ids {
		out = append(out, st.positions[id])
	}
	return out
}

// Len returns the number of positions
func (s *Store) Len() int {
	return len(s.current.Load().ids)
}

// History returns a copy of a position's market value history, oldest first
func (s *Store) History(id string) []float64 {
	h := s.current.Load().histories[id]
	out := make([]float64, len(h))
	copy(out, h)
	return out
}

// Snapshot freezes the current state. Later writes never affect the result.
func (s *Store) Snapshot() Snapshot {
	st := s.current.Load()
	snap := Snapshot{
		TakenAt:   s.now(),
		Positions: make([]domain.Position, 0, len(st.ids)),
		Histories: make(map[string][]float64, len(st.histories)),
	}
	for _, id := range st.ids {
		snap.Positions = append(snap.Positions, st.positions[id])
	}
	for id, h := range st.histories {
		// history slices are never mutated in place, sharing is safe
		snap.Histories[id] = h
	}
	return snap
}

func validate(p domain.Position) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidPosition)
	case p.Symbol == "":
		return fmt.Errorf("%w: symbol is required for %q", ErrInvalidPosition, p.ID)
	case !p.AssetClass.Valid():
		return fmt.Errorf("%w: unknown asset class %q for %q", ErrInvalidPosition, p.AssetClass, p.ID)
	case !isFinite(p.Quantity):
		return fmt.Errorf("%w: quantity must be finite for %q", ErrInvalidPosition, p.ID)
	case !isFinite(p.CurrentPrice) || p.CurrentPrice < 0:
		return fmt.Errorf("%w: current price must be finite and non-negative for %q", ErrInvalidPosition, p.ID)
	case !isFinite(p.AverageCost) || p.AverageCost < 0:
		return fmt.Errorf("%w: average cost must be finite and non-negative for %q", ErrInvalidPosition, p.ID)
	case p.Beta != nil && !isFinite(*p.Beta):
		return fmt.Errorf("%w: beta must be finite for %q", ErrInvalidPosition, p.ID)
	case p.DividendYield != nil && !isFinite(*p.DividendYield):
		return fmt.Errorf("%w: dividend yield must be finite for %q", ErrInvalidPosition, p.ID)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// appendBounded returns a new slice with v appended, keeping the newest limit values
func appendBounded(history []float64, v float64, limit int) []float64 {
	start := 0
	if len(history)+1 > limit {
		start = len(history) + 1 - limit
	}
	out := make([]float64, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, v)
}

func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:i]...)
	out = append(out, id)
	return append(out, ids[i:]...)
}
