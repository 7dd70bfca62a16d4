package feed_test

import (
	"cinema-seat-booking/internal/feed"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	id := uuid.New()

	t.Run("Success - update", func(t *testing.T) {
		payload := `{"eventType":"UPDATE","new":{"id":"` + id.String() + `","row_label":"A","seat_number":2,"is_taken":true,"booked_by":"Jana","created_at":"2025-05-01T19:00:00.123456+00:00","updated_at":"2025-05-01T19:00:00.123456+00:00"},"old":{"id":"` + id.String() + `"}}`

		ev, err := feed.DecodeEvent([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, model.ChangeUpdate, ev.EventType)
		require.NotNil(t, ev.New)
		assert.Equal(t, "A2", ev.New.Label())
		assert.True(t, ev.New.IsTaken)
		assert.Equal(t, "Jana", *ev.New.BookedBy)
	})

	t.Run("Success - delete", func(t *testing.T) {
		ev, err := feed.DecodeEvent([]byte(`{"eventType":"DELETE","old":{"id":"` + id.String() + `"}}`))
		require.NoError(t, err)
		got, ok := ev.SeatID()
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("Failed - malformed", func(t *testing.T) {
		for _, payload := range []string{
			`not json`,
			`{"eventType":"UPDATE"}`,
			`{"eventType":"DELETE"}`,
			`{"eventType":"TRUNCATE","old":{"id":"` + id.String() + `"}}`,
		} {
			_, err := feed.DecodeEvent([]byte(payload))
			assert.ErrorIs(t, err, feed.ErrMalformedEvent, payload)
		}
	})
}

func TestListener_DeliversCommittedChanges(t *testing.T) {
	pool := testutil.NewTestPool(t)

	events := make(chan model.ChangeEvent, 8)
	l := feed.NewListener(pool, feed.Channel, 50*time.Millisecond, func(_ context.Context, ev model.ChangeEvent) {
		events <- ev
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	select {
	case <-l.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("listener never started")
	}

	id := testutil.InsertSeat(t, pool, "A", 1)
	_, err := pool.Exec(context.Background(),
		`UPDATE seats SET is_taken = true, booked_by = 'Jana' WHERE id = $1`, id)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), `DELETE FROM seats WHERE id = $1`, id)
	require.NoError(t, err)

	want := []model.ChangeEventType{model.ChangeInsert, model.ChangeUpdate, model.ChangeDelete}
	for _, typ := range want {
		select {
		case ev := <-events:
			assert.Equal(t, typ, ev.EventType)
			got, ok := ev.SeatID()
			assert.True(t, ok)
			assert.Equal(t, id, got.String())
			if typ == model.ChangeUpdate {
				assert.Equal(t, "Jana", *ev.New.BookedBy)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no %s event received", typ)
		}
	}
}
