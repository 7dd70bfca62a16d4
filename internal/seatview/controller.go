package seatview

import (
	"cinema-seat-booking/internal/model"
	apperrors "cinema-seat-booking/pkg/app_errors"
	"cinema-seat-booking/pkg/logger"
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultPulseDuration = time.Second

// SeatAPI is the server side the controller needs: the seat read and the
// booking function.
type SeatAPI interface {
	ListSeats(ctx context.Context) ([]model.Seat, error)
	BookSeats(ctx context.Context, seats []model.SeatBooking) (*model.BookingResponse, error)
}

// SeatView is one seat as presented to the user.
type SeatView struct {
	model.Seat
	Selected   bool
	Name       string
	JustBooked bool
}

// Controller owns the client-side seat map. It is safe for concurrent use by
// the feed goroutine, the UI and its own timers; network calls never run
// while the lock is held.
type Controller struct {
	api           SeatAPI
	notifier      Notifier
	pulseDuration time.Duration
	onChange      func()
	log           *zap.Logger

	mu         sync.Mutex
	state      State
	justBooked map[uuid.UUID]*time.Timer
	inFlight   bool
	closed     bool
}

type Option func(*Controller)

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithPulseDuration(d time.Duration) Option {
	return func(c *Controller) { c.pulseDuration = d }
}

// WithOnChange registers a callback run after every visible state change,
// outside the lock.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

func NewController(api SeatAPI, opts ...Option) *Controller {
	c := &Controller{
		api:           api,
		pulseDuration: DefaultPulseDuration,
		log:           logger.WithComponent("seatview"),
		state:         NewState(),
		justBooked:    make(map[uuid.UUID]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NewLogNotifier()
	}
	return c
}

// LoadAll replaces the snapshot with a fresh seat list. On failure the
// previous snapshot stays in place and the error is only logged and returned.
func (c *Controller) LoadAll(ctx context.Context) error {
	seats, err := c.api.ListSeats(ctx)
	if err != nil {
		c.log.Error("failed to fetch seats", zap.Error(err))
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrControllerClosed
	}
	var effects []Effect
	c.state, effects = Replace(c.state, NewSnapshot(seats))
	c.mu.Unlock()

	c.run(effects)
	c.changed()
	return nil
}

// OnChangeEvent folds one change feed event into the view.
func (c *Controller) OnChangeEvent(ev model.ChangeEvent) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var effects []Effect
	c.state, effects = Reduce(c.state, ev)
	c.mu.Unlock()

	c.run(effects)
	c.changed()
}

// ToggleSelection selects a free seat or deselects a selected one, dropping
// its name draft. Taken and unknown seats are ignored. It reports whether the
// seat is selected afterwards.
func (c *Controller) ToggleSelection(id uuid.UUID) bool {
	c.mu.Lock()
	seat, ok := c.state.Snapshot.Get(id)
	if !ok || seat.IsTaken || c.closed {
		c.mu.Unlock()
		return false
	}

	next := c.state.clone()
	selected := !next.IsSelected(id)
	if selected {
		next.Selected[id] = struct{}{}
	} else {
		next.deselect(id)
	}
	c.state = next
	c.mu.Unlock()

	c.changed()
	return selected
}

// SetName records the name draft of a selected seat. It reports false when
// the seat is not selected.
func (c *Controller) SetName(id uuid.UUID, name string) bool {
	c.mu.Lock()
	if !c.state.IsSelected(id) {
		c.mu.Unlock()
		return false
	}
	next := c.state.clone()
	next.Names[id] = name
	c.state = next
	c.mu.Unlock()

	c.changed()
	return true
}

// SubmitBooking sends every selected seat with its name in one request. A
// selection without names never reaches the network. On success the selection
// and drafts are cleared and the seat list is reloaded; on failure both stay.
func (c *Controller) SubmitBooking(ctx context.Context) (*model.BookingResponse, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, apperrors.ErrControllerClosed
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, apperrors.ErrBookingInProgress
	}
	seats, err := c.bookingLocked()
	if err != nil {
		c.mu.Unlock()
		c.notifier.Error("Booking not sent", err.Error())
		return nil, err
	}
	pending := c.state.clone()
	pending.Pending = maps.Clone(pending.Selected)
	c.state = pending
	c.inFlight = true
	c.mu.Unlock()
	c.changed()

	resp, err := c.api.BookSeats(ctx, seats)

	c.mu.Lock()
	c.inFlight = false
	settled := c.state.clone()
	clear(settled.Pending)
	c.state = settled
	if c.closed {
		c.mu.Unlock()
		return nil, apperrors.ErrControllerClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Error("booking failed", zap.Int("seats", len(seats)), zap.Error(err))
		c.notifier.Error("Booking failed", fmt.Sprintf("Could not book seats: %v", err))
		c.changed()
		return nil, err
	}
	next := c.state.clone()
	clear(next.Selected)
	clear(next.Names)
	c.state = next
	c.mu.Unlock()

	c.notifier.Success("Booking confirmed", fmt.Sprintf("You booked %d %s", len(seats), plural(len(seats), "seat", "seats")))
	c.changed()

	_ = c.LoadAll(ctx)
	return resp, nil
}

// bookingLocked builds the request body in snapshot order.
func (c *Controller) bookingLocked() ([]model.SeatBooking, error) {
	if len(c.state.Selected) == 0 {
		return nil, apperrors.ErrNothingSelected
	}

	seats := make([]model.SeatBooking, 0, len(c.state.Selected))
	for _, seat := range c.state.Snapshot.seats {
		if !c.state.IsSelected(seat.ID) {
			continue
		}
		name := strings.TrimSpace(c.state.Names[seat.ID])
		if name == "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingName, seat.Label())
		}
		seats = append(seats, model.SeatBooking{SeatRow: seat.RowLabel, SeatNumber: seat.SeatNumber, Name: name})
	}
	return seats, nil
}

// Seats returns the current view in display order.
func (c *Controller) Seats() []SeatView {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SeatView, 0, c.state.Snapshot.Len())
	for _, seat := range c.state.Snapshot.seats {
		_, pulsing := c.justBooked[seat.ID]
		out = append(out, SeatView{
			Seat:       seat,
			Selected:   c.state.IsSelected(seat.ID),
			Name:       c.state.Names[seat.ID],
			JustBooked: pulsing,
		})
	}
	return out
}

// Selected returns the selected seat ids in display order.
func (c *Controller) Selected() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(c.state.Selected))
	for _, seat := range c.state.Snapshot.seats {
		if c.state.IsSelected(seat.ID) {
			ids = append(ids, seat.ID)
		}
	}
	return ids
}

func (c *Controller) IsJustBooked(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.justBooked[id]
	return ok
}

func (c *Controller) Booking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Close stops the pulse timers. Results arriving afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, t := range c.justBooked {
		t.Stop()
		delete(c.justBooked, id)
	}
}

func (c *Controller) run(effects []Effect) {
	for _, eff := range effects {
		switch eff.Kind {
		case EffectPulseSeat:
			c.pulse(eff.Seat.ID)
		case EffectSeatConflict:
			c.notifier.Error("Seat no longer available",
				fmt.Sprintf("Seat %s was just booked by someone else", eff.Seat.Label()))
		}
	}
}

// pulse marks a seat as just booked until the pulse duration elapses. A
// repeated pulse restarts the timer.
func (c *Controller) pulse(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if t, ok := c.justBooked[id]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(c.pulseDuration, func() {
		c.mu.Lock()
		if c.justBooked[id] != timer {
			c.mu.Unlock()
			return
		}
		delete(c.justBooked, id)
		c.mu.Unlock()
		c.changed()
	})
	c.justBooked[id] = timer
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
