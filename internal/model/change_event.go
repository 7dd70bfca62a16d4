package model

import "github.com/google/uuid"

type ChangeEventType string

const (
	ChangeInsert ChangeEventType = "INSERT"
	ChangeUpdate ChangeEventType = "UPDATE"
	ChangeDelete ChangeEventType = "DELETE"
)

func (t ChangeEventType) IsValid() bool {
	switch t {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
		return true
	}
	return false
}

type SeatRef struct {
	ID uuid.UUID `json:"id"`
}

// ChangeEvent is one row-level notification of the seat change feed.
// New is set for INSERT and UPDATE, Old carries the id for UPDATE and DELETE.
type ChangeEvent struct {
	EventType ChangeEventType `json:"eventType"`
	New       *Seat           `json:"new,omitempty"`
	Old       *SeatRef        `json:"old,omitempty"`
}

// SeatID returns the id the event is keyed by.
func (e ChangeEvent) SeatID() (uuid.UUID, bool) {
	switch {
	case e.EventType == ChangeDelete && e.Old != nil:
		return e.Old.ID, true
	case e.New != nil:
		return e.New.ID, true
	case e.Old != nil:
		return e.Old.ID, true
	}
	return uuid.Nil, false
}

// Valid reports whether the event carries what its type needs.
func (e ChangeEvent) Valid() bool {
	switch e.EventType {
	case ChangeInsert, ChangeUpdate:
		return e.New != nil
	case ChangeDelete:
		return e.Old != nil
	}
	return false
}
