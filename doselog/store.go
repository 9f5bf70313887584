// Package doselog is the persistence collaborator for parsed doses: an
// in-memory log with CRUD operations, an incremental onset/peak/offset
// timestamp-annotation workflow, and simple aggregate stats. It consumes
// Records the parser produced and never re-validates them.
package doselog

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sernyl/doselog-api/dosing"
)

// Phase names for the timestamp-annotation workflow.
const (
	PhaseOnset  = "onset"
	PhasePeak   = "peak"
	PhaseOffset = "offset"
)

var (
	ErrNotFound     = errors.New("dose entry not found")
	ErrUnknownPhase = errors.New("unknown annotation phase")
)

// Entry is one logged dose with its annotation timestamps.
type Entry struct {
	ID        string        `json:"id"`
	Record    dosing.Record `json:"record"`
	CreatedAt time.Time     `json:"created_at"`
	Onset     *time.Time    `json:"onset,omitempty"`
	Peak      *time.Time    `json:"peak,omitempty"`
	Offset    *time.Time    `json:"offset,omitempty"`
}

// Store is a thread-safe in-memory dose log.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string // insertion order of IDs
	now     func() time.Time
}

// NewStore creates an empty dose log.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Add logs a new dose and returns the stored entry.
func (s *Store) Add(record dosing.Record) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:        uuid.NewString(),
		Record:    record,
		CreatedAt: s.now(),
	}
	s.entries[entry.ID] = entry
	s.order = append(s.order, entry.ID)
	return entry
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Update replaces the record of an existing entry, keeping its timestamps.
func (s *Store) Update(id string, record dosing.Record) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	entry.Record = record
	s.entries[id] = entry
	return entry, nil
}

// Delete removes an entry.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Annotate stamps one phase of the entry's timeline. A zero time means "now".
// Re-annotating a phase overwrites the previous stamp.
func (s *Store) Annotate(id, phase string, at time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}

	if at.IsZero() {
		at = s.now()
	}
	stamp := at

	switch phase {
	case PhaseOnset:
		entry.Onset = &stamp
	case PhasePeak:
		entry.Peak = &stamp
	case PhaseOffset:
		entry.Offset = &stamp
	default:
		return Entry{}, ErrUnknownPhase
	}

	s.entries[id] = entry
	return entry, nil
}

// Filter narrows a listing. Zero values mean "no constraint"; LastN applies
// after all other constraints.
type Filter struct {
	Substances []string
	Routes     []string
	Year       int
	From       time.Time
	To         time.Time
	LastN      int
}

func (f Filter) matches(e Entry) bool {
	if len(f.Substances) > 0 && !containsFold(f.Substances, e.Record.Substance) {
		return false
	}
	if len(f.Routes) > 0 && !containsFold(f.Routes, e.Record.Route) {
		return false
	}
	if f.Year != 0 && e.CreatedAt.Year() != f.Year {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CreatedAt.After(f.To) {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// List returns entries in insertion order, narrowed by the filter.
func (s *Store) List(f Filter) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		entry := s.entries[id]
		if f.matches(entry) {
			out = append(out, entry)
		}
	}

	if f.LastN > 0 && len(out) > f.LastN {
		out = out[len(out)-f.LastN:]
	}
	return out
}

// Len returns the number of logged entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// sortedAmounts extracts the amounts of entries, sorted ascending. Used by
// the median calculation.
func sortedAmounts(entries []Entry) []float64 {
	amounts := make([]float64, len(entries))
	for i, e := range entries {
		amounts[i] = e.Record.Amount
	}
	sort.Float64s(amounts)
	return amounts
}
