package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	appLog "nascal/internal/log"
)

// ParsedImport is the validated form of an import payload. Exactly one of
// List or Mapping is set, matching the two accepted wire shapes.
type ParsedImport struct {
	List    []Event
	Mapping map[string]Event
}

// parseImport decodes and fully validates an import payload before any of
// it is applied. The accepted shapes are a JSON array of events or a JSON
// object mapping id to event; anything else is a FormatError.
func parseImport(payload []byte) (ParsedImport, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ParsedImport{}, &FormatError{Reason: "empty payload"}
	}

	switch trimmed[0] {
	case '[':
		var list []Event
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return ParsedImport{}, &FormatError{Reason: "not a valid event array"}
		}
		for i, ev := range list {
			if err := validateImported(ev); err != nil {
				return ParsedImport{}, &FormatError{Reason: fmt.Sprintf("record %d: %v", i, err)}
			}
		}
		return ParsedImport{List: list}, nil
	case '{':
		var mapping map[string]Event
		if err := json.Unmarshal(trimmed, &mapping); err != nil {
			return ParsedImport{}, &FormatError{Reason: "not a valid event mapping"}
		}
		for key, ev := range mapping {
			if err := validateImported(ev); err != nil {
				return ParsedImport{}, &FormatError{Reason: fmt.Sprintf("record %q: %v", key, err)}
			}
		}
		return ParsedImport{Mapping: mapping}, nil
	default:
		return ParsedImport{}, &FormatError{Reason: "expected a JSON array or object"}
	}
}

func validateImported(ev Event) error {
	if strings.TrimSpace(ev.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(ev.Date) == "" {
		return &ValidationError{Field: "date"}
	}
	return nil
}

// ImportMerge upserts every record of a valid payload into the store and
// persists once at the end. A malformed payload is rejected as a whole:
// nothing is applied and the store file is untouched. Records without an id
// get a generated one; in the mapping shape the map key stands in first.
// Returns the number of records applied.
func (s *Store) ImportMerge(payload []byte) (int, error) {
	parsed, err := parseImport(payload)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	switch {
	case parsed.List != nil:
		for _, ev := range parsed.List {
			if ev.ID == "" {
				ev.ID = newEventID()
			}
			s.events[ev.ID] = ev
			n++
		}
	case parsed.Mapping != nil:
		for key, ev := range parsed.Mapping {
			if ev.ID == "" {
				ev.ID = key
			}
			if ev.ID == "" {
				ev.ID = newEventID()
			}
			s.events[ev.ID] = ev
			n++
		}
	}

	if err := s.persistLocked(); err != nil {
		return n, err
	}

	appLog.Info("import merged", "records", n)
	return n, nil
}
