package feed

import (
	"cinema-seat-booking/internal/model"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func updateEvent(row string, number int) model.ChangeEvent {
	id := uuid.New()
	return model.ChangeEvent{
		EventType: model.ChangeUpdate,
		New:       &model.Seat{ID: id, RowLabel: row, SeatNumber: number, IsTaken: true},
		Old:       &model.SeatRef{ID: id},
	}
}

func receive(t *testing.T, ch <-chan model.ChangeEvent) (model.ChangeEvent, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return model.ChangeEvent{}, false
	}
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub(context.Background())
	defer h.Send(Shutdown{})

	a := make(chan model.ChangeEvent, 4)
	b := make(chan model.ChangeEvent, 4)
	h.Send(Join{ClientID: "a", Outbox: a})
	h.Send(Join{ClientID: "b", Outbox: b})
	require.Equal(t, 2, h.Subscribers())

	ev := updateEvent("A", 1)
	h.Broadcast(context.Background(), ev)

	got, ok := receive(t, a)
	require.True(t, ok)
	assert.Equal(t, ev, got)
	got, ok = receive(t, b)
	require.True(t, ok)
	assert.Equal(t, ev, got)
}

func TestHub_LeaveClosesOutbox(t *testing.T) {
	h := NewHub(context.Background())
	defer h.Send(Shutdown{})

	out := make(chan model.ChangeEvent, 1)
	h.Send(Join{ClientID: "a", Outbox: out})
	h.Send(Leave{ClientID: "a"})
	// second leave is a no-op
	h.Send(Leave{ClientID: "a"})

	_, ok := receive(t, out)
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := NewHub(context.Background())
	defer h.Send(Shutdown{})

	slow := make(chan model.ChangeEvent) // unbuffered and never read
	fast := make(chan model.ChangeEvent, 4)
	h.Send(Join{ClientID: "slow", Outbox: slow})
	h.Send(Join{ClientID: "fast", Outbox: fast})

	h.Broadcast(context.Background(), updateEvent("B", 5))

	_, ok := receive(t, fast)
	assert.True(t, ok)
	assert.Equal(t, 1, h.Subscribers())
	_, ok = <-slow
	assert.False(t, ok)
}

func TestHub_ShutdownClosesEverything(t *testing.T) {
	h := NewHub(context.Background())

	out := make(chan model.ChangeEvent, 1)
	h.Send(Join{ClientID: "a", Outbox: out})
	h.Send(Shutdown{})

	_, ok := receive(t, out)
	assert.False(t, ok)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.False(t, h.Send(Publish{Event: updateEvent("A", 1)}))
	assert.Equal(t, -1, h.Subscribers())
}

func TestHub_StopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(ctx)

	out := make(chan model.ChangeEvent, 1)
	h.Send(Join{ClientID: "a", Outbox: out})
	require.Equal(t, 1, h.Subscribers())
	cancel()

	_, ok := receive(t, out)
	assert.False(t, ok)
}
