package store

import (
	"fmt"

	"github.com/google/uuid"
)

// Event category tags. Unknown values are preserved and rendered as the
// generic kind.
const (
	TypeEvent   = "event"
	TypeExam    = "exam"
	TypeHoliday = "holiday"
)

// Event is a single planner entry. Field names match the persisted JSON
// layout: one object per event inside the {id: Event} store blob.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`           // YYYY-MM-DD
	Time  string `json:"time,omitempty"` // HH:MM, empty means all-day
	Desc  string `json:"desc,omitempty"`
	Type  string `json:"type"`
}

// Draft carries the user-provided fields for a new event; the store
// assigns the id.
type Draft struct {
	Title string
	Date  string
	Time  string
	Desc  string
	Type  string
}

// Patch is a partial update: nil fields keep the current value. Applying a
// patch produces a new Event value; the stored record is replaced, never
// mutated in place.
type Patch struct {
	Title *string
	Date  *string
	Time  *string
	Desc  *string
	Type  *string
}

func (p Patch) apply(ev Event) Event {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.Time != nil {
		ev.Time = *p.Time
	}
	if p.Desc != nil {
		ev.Desc = *p.Desc
	}
	if p.Type != nil {
		ev.Type = *p.Type
	}
	return ev
}

// ValidationError reports a missing required field on create or update.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field %q is empty", e.Field)
}

// NotFoundError reports an operation against an unknown event id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no event with id %q", e.ID)
}

// FormatError reports an import payload that matches neither accepted
// shape, or a record inside it missing a required field.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid import payload: " + e.Reason
}

// newEventID allocates a fresh opaque event id.
func newEventID() string {
	return "evt_" + uuid.NewString()
}

// dateKey reduces a stored date to its comparable form: the first 10
// characters, i.e. YYYY-MM-DD with any suffix dropped.
func dateKey(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
