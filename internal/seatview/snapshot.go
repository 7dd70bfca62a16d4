package seatview

import (
	"cinema-seat-booking/internal/model"
	"slices"

	"github.com/google/uuid"
)

// Snapshot is an immutable seat list kept sorted by row, then seat number,
// with an id index. Every change produces a new Snapshot.
type Snapshot struct {
	seats []model.Seat
	index map[uuid.UUID]int
}

// NewSnapshot sorts a copy of seats. A repeated id keeps its last occurrence.
func NewSnapshot(seats []model.Seat) Snapshot {
	byID := make(map[uuid.UUID]model.Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}
	sorted := make([]model.Seat, 0, len(byID))
	for _, s := range byID {
		sorted = append(sorted, s)
	}
	slices.SortFunc(sorted, model.CompareSeats)
	return newIndexed(sorted)
}

func newIndexed(sorted []model.Seat) Snapshot {
	index := make(map[uuid.UUID]int, len(sorted))
	for i, s := range sorted {
		index[s.ID] = i
	}
	return Snapshot{seats: sorted, index: index}
}

func (s Snapshot) Len() int { return len(s.seats) }

func (s Snapshot) Get(id uuid.UUID) (model.Seat, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Seat{}, false
	}
	return s.seats[i], true
}

// Seats returns a copy in display order.
func (s Snapshot) Seats() []model.Seat {
	return slices.Clone(s.seats)
}

// ApplyEvent folds one change event into the snapshot. INSERT and UPDATE
// upsert by id, DELETE removes by id. Applying the same event twice gives the
// same result, and an event older than the stored row is ignored.
func ApplyEvent(s Snapshot, ev model.ChangeEvent) Snapshot {
	switch ev.EventType {
	case model.ChangeInsert, model.ChangeUpdate:
		if ev.New == nil {
			return s
		}
		return s.upsert(*ev.New)
	case model.ChangeDelete:
		id, ok := ev.SeatID()
		if !ok {
			return s
		}
		return s.remove(id)
	}
	return s
}

func (s Snapshot) upsert(seat model.Seat) Snapshot {
	if cur, ok := s.Get(seat.ID); ok && isStale(cur, seat) {
		return s
	}

	next := make([]model.Seat, 0, len(s.seats)+1)
	for _, existing := range s.seats {
		if existing.ID != seat.ID {
			next = append(next, existing)
		}
	}
	pos, _ := slices.BinarySearchFunc(next, seat, model.CompareSeats)
	next = slices.Insert(next, pos, seat)
	return newIndexed(next)
}

func (s Snapshot) remove(id uuid.UUID) Snapshot {
	i, ok := s.index[id]
	if !ok {
		return s
	}
	next := slices.Delete(slices.Clone(s.seats), i, i+1)
	return newIndexed(next)
}

// isStale reports whether incoming is an older version of cur. Rows without
// a timestamp are never treated as stale.
func isStale(cur, incoming model.Seat) bool {
	if cur.UpdatedAt.IsZero() || incoming.UpdatedAt.IsZero() {
		return false
	}
	return incoming.UpdatedAt.Before(cur.UpdatedAt)
}
