package seatview

import (
	"cinema-seat-booking/internal/model"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// State is everything the seat view knows: the seat snapshot plus the local
// selection and name drafts. Pending holds the seats of the booking this
// client has in flight; their taken updates are its own. Reduce never
// mutates its input.
type State struct {
	Snapshot Snapshot
	Selected map[uuid.UUID]struct{}
	Names    map[uuid.UUID]string
	Pending  map[uuid.UUID]struct{}
}

func NewState() State {
	return State{
		Selected: make(map[uuid.UUID]struct{}),
		Names:    make(map[uuid.UUID]string),
		Pending:  make(map[uuid.UUID]struct{}),
	}
}

func (st State) IsPending(id uuid.UUID) bool {
	_, ok := st.Pending[id]
	return ok
}

func (st State) IsSelected(id uuid.UUID) bool {
	_, ok := st.Selected[id]
	return ok
}

func (st State) clone() State {
	return State{
		Snapshot: st.Snapshot,
		Selected: maps.Clone(st.Selected),
		Names:    maps.Clone(st.Names),
		Pending:  maps.Clone(st.Pending),
	}
}

func (st State) deselect(id uuid.UUID) {
	delete(st.Selected, id)
	delete(st.Names, id)
}

type EffectKind int

const (
	// EffectPulseSeat marks a seat someone else just booked.
	EffectPulseSeat EffectKind = iota + 1
	// EffectSeatConflict reports that a selected seat was taken by someone else.
	EffectSeatConflict
)

func (k EffectKind) String() string {
	switch k {
	case EffectPulseSeat:
		return "pulse_seat"
	case EffectSeatConflict:
		return "seat_conflict"
	}
	return "unknown"
}

type Effect struct {
	Kind EffectKind
	Seat model.Seat
}

// Reduce applies one change event to st and returns the new state with the
// side effects the caller has to run.
func Reduce(st State, ev model.ChangeEvent) (State, []Effect) {
	next := st.clone()
	next.Snapshot = ApplyEvent(st.Snapshot, ev)

	var effects []Effect
	switch ev.EventType {
	case model.ChangeUpdate:
		if ev.New == nil || !ev.New.IsTaken || next.IsPending(ev.New.ID) {
			break
		}
		if next.IsSelected(ev.New.ID) {
			next.deselect(ev.New.ID)
			effects = append(effects, Effect{Kind: EffectSeatConflict, Seat: *ev.New})
		} else {
			effects = append(effects, Effect{Kind: EffectPulseSeat, Seat: *ev.New})
		}

	case model.ChangeDelete:
		if id, ok := ev.SeatID(); ok {
			next.deselect(id)
		}
	}
	return next, effects
}

// Replace swaps in a freshly loaded snapshot. Selected seats that are gone or
// taken in it are deselected and reported as conflicts, except seats of the
// pending booking.
func Replace(st State, snap Snapshot) (State, []Effect) {
	next := st.clone()
	next.Snapshot = snap

	var effects []Effect
	for id := range st.Selected {
		seat, ok := snap.Get(id)
		switch {
		case !ok:
			next.deselect(id)
		case seat.IsTaken && !st.IsPending(id):
			next.deselect(id)
			effects = append(effects, Effect{Kind: EffectSeatConflict, Seat: seat})
		}
	}
	slices.SortFunc(effects, func(a, b Effect) int { return model.CompareSeats(a.Seat, b.Seat) })
	return next, effects
}
