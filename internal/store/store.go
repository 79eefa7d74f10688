// Package store owns the authoritative event set for the planner year.
//
// Events live in memory keyed by id and are written through to a single
// pretty-printed JSON file after every mutation. Lookups by date scan the
// set; the store is small enough that no date index is kept.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	appLog "nascal/internal/log"
)

// StorageKey is the fixed name the store blob is kept under; the data file
// is <data dir>/<StorageKey>.json.
const StorageKey = "nascente-calendar-2016"

// ExportFileName is the fixed download name for full-store exports.
const ExportFileName = "nascente-events-2016.json"

// Seed event inserted once on first load (the opening day of the school
// year at Kurohana).
const (
	seedDate  = "2016-02-10"
	seedMatch = "aulas"
)

// Store is the keyed event collection with write-through persistence.
type Store struct {
	path string

	mu     sync.RWMutex
	events map[string]Event
}

// New returns a store persisted at <dataDir>/<StorageKey>.json. Call Load
// before anything else.
func New(dataDir string) *Store {
	return &Store{
		path:   filepath.Join(dataDir, StorageKey+".json"),
		events: make(map[string]Event),
	}
}

// Path returns the location of the persisted store file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted blob into memory. A missing or unparsable file
// yields an empty store; corruption is logged, not surfaced.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[string]Event)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			appLog.Error("store file unreadable, starting empty", err, "path", s.path)
		}
		return nil
	}

	var loaded map[string]Event
	if err := json.Unmarshal(data, &loaded); err != nil {
		appLog.Error("store file corrupt, starting empty", err, "path", s.path)
		return nil
	}
	if loaded != nil {
		s.events = loaded
	}
	return nil
}

// Persist writes the full store as one pretty-printed JSON object, atomic
// temp-file+rename.
func (s *Store) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+StorageKey+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Create validates the draft, assigns a fresh id, stores and persists the
// new event.
func (s *Store) Create(d Draft) (Event, error) {
	title := strings.TrimSpace(d.Title)
	date := strings.TrimSpace(d.Date)
	if title == "" {
		return Event{}, &ValidationError{Field: "title"}
	}
	if date == "" {
		return Event{}, &ValidationError{Field: "date"}
	}

	ev := Event{
		ID:    newEventID(),
		Title: title,
		Date:  date,
		Time:  d.Time,
		Desc:  d.Desc,
		Type:  d.Type,
	}
	if ev.Type == "" {
		ev.Type = TypeEvent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	if err := s.persistLocked(); err != nil {
		return ev, err
	}

	appLog.Debug("event created", "id", ev.ID, "date", ev.Date)
	return ev, nil
}

// Update applies the patch to the stored event and persists. Fields the
// patch leaves nil are retained; emptying title or date is rejected.
func (s *Store) Update(id string, p Patch) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.events[id]
	if !ok {
		return Event{}, &NotFoundError{ID: id}
	}

	next := p.apply(cur)
	next.ID = cur.ID // id is immutable
	if strings.TrimSpace(next.Title) == "" {
		return Event{}, &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(next.Date) == "" {
		return Event{}, &ValidationError{Field: "date"}
	}

	s.events[id] = next
	if err := s.persistLocked(); err != nil {
		return next, err
	}

	appLog.Debug("event updated", "id", id)
	return next, nil
}

// Delete removes the event and persists.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.events, id)
	if err := s.persistLocked(); err != nil {
		return err
	}

	appLog.Debug("event deleted", "id", id)
	return nil
}

// Get returns a single event by id.
func (s *Store) Get(id string) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	return ev, ok
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// FindByDate returns the events whose date matches the first 10 characters
// of dateISO, ordered by ascending time. Events with no time sort first;
// ties break on id so the order is deterministic.
func (s *Store) FindByDate(dateISO string) []Event {
	key := dateKey(dateISO)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, 4)
	for _, ev := range s.events {
		if dateKey(ev.Date) == key {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ExportAll returns a copy of the full id→Event mapping.
func (s *Store) ExportAll() map[string]Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Event, len(s.events))
	for id, ev := range s.events {
		out[id] = ev
	}
	return out
}

// ExportJSON renders the full store in the export-file format
// (pretty-printed {id: Event}).
func (s *Store) ExportJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s.events, "", "  ")
}

// EnsureSeedEvent inserts the fixed opening-day event unless some stored
// event already sits on its date with a matching title. Safe to call on
// every startup.
func (s *Store) EnsureSeedEvent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range s.events {
		if dateKey(ev.Date) == seedDate && strings.Contains(strings.ToLower(ev.Title), seedMatch) {
			return nil
		}
	}

	seed := Event{
		ID:    newEventID(),
		Title: "Início das aulas (1º ano)",
		Date:  seedDate,
		Time:  "07:00",
		Desc:  "Primeiro dia do ano letivo na Kurohana — aulas em período integral",
		Type:  TypeEvent,
	}
	s.events[seed.ID] = seed
	if err := s.persistLocked(); err != nil {
		return err
	}

	appLog.Info("seed event inserted", "id", seed.ID, "date", seed.Date)
	return nil
}
