package main

import (
	"bytes"
	"cinema-seat-booking/internal/model"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAPI struct {
	seats []model.Seat
}

func (a staticAPI) ListSeats(ctx context.Context) ([]model.Seat, error) {
	return a.seats, nil
}

func (a staticAPI) BookSeats(ctx context.Context, seats []model.SeatBooking) (*model.BookingResponse, error) {
	return &model.BookingResponse{Success: true, BookedSeats: len(seats)}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFeedEventRedrawsJustBookedSeat(t *testing.T) {
	a1 := model.Seat{ID: uuid.New(), RowLabel: "A", SeatNumber: 1}
	out := &syncBuffer{}
	term := &terminal{out: out}

	ctrl := newController(staticAPI{seats: []model.Seat{a1}}, term)
	defer ctrl.Close()
	require.NoError(t, ctrl.LoadAll(context.Background()))

	name := "Peter"
	booked := a1
	booked.IsTaken = true
	booked.BookedBy = &name
	ctrl.OnChangeEvent(model.ChangeEvent{EventType: model.ChangeUpdate, New: &booked, Old: &model.SeatRef{ID: a1.ID}})

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[!]1")
	}, time.Second, 10*time.Millisecond, "map redrawn without a command")
}
