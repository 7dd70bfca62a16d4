package seatview_test

import (
	"cinema-seat-booking/internal/client"
	"cinema-seat-booking/internal/feed"
	"cinema-seat-booking/internal/handler"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/internal/queue"
	"cinema-seat-booking/internal/repository"
	"cinema-seat-booking/internal/seatview"
	"cinema-seat-booking/internal/service"
	"cinema-seat-booking/internal/testutil"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietNotifier struct{}

func (quietNotifier) Success(string, string) {}
func (quietNotifier) Error(string, string)   {}

// Two viewers against a real store: one books A1/A2, the other sees both
// seats turn taken through the change feed.
func TestSeatView_EndToEnd(t *testing.T) {
	pool := testutil.NewTestPool(t)
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := repository.NewSeatRepository(pool)
	_, err := repo.Provision(ctx, []string{"A", "B"}, 5)
	require.NoError(t, err)

	notifications := queue.NewNotificationQueue(4)
	svc := service.NewSeatService(repo, service.WithNotificationQueue(notifications))

	hub := feed.NewHub(ctx)
	listener := feed.NewListener(pool, feed.Channel, 50*time.Millisecond, hub.Broadcast)
	go func() { _ = listener.Run(ctx) }()
	select {
	case <-listener.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("listener never started")
	}

	srv := httptest.NewServer(handler.NewRouter(svc, hub, 16))
	defer srv.Close()

	newViewer := func() *seatview.Controller {
		c := seatview.NewController(client.NewSeatClient(srv.URL, 5*time.Second),
			seatview.WithNotifier(quietNotifier{}))
		t.Cleanup(c.Close)
		connected := make(chan struct{}, 1)
		go func() {
			_ = client.NewFeedSubscriber(srv.URL, 50*time.Millisecond).Run(ctx, c.OnChangeEvent, func() {
				_ = c.LoadAll(ctx)
				select {
				case connected <- struct{}{}:
				default:
				}
			})
		}()
		select {
		case <-connected:
		case <-time.After(5 * time.Second):
			t.Fatal("viewer never connected")
		}
		return c
	}

	booker := newViewer()
	watcher := newViewer()
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	seats := booker.Seats()
	require.Len(t, seats, 10)
	a1, a2 := seats[0], seats[1]
	require.Equal(t, "A1", a1.Label())
	require.Equal(t, "A2", a2.Label())

	booker.ToggleSelection(a1.ID)
	booker.ToggleSelection(a2.ID)
	booker.SetName(a1.ID, "Jana")
	booker.SetName(a2.ID, "Peter")

	resp, err := booker.SubmitBooking(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.BookingResponse{Success: true, BookedSeats: 2}, resp)
	assert.Empty(t, booker.Selected())

	takenBy := func(c *seatview.Controller, id uuid.UUID) string {
		for _, v := range c.Seats() {
			if v.ID == id && v.IsTaken && v.BookedBy != nil {
				return *v.BookedBy
			}
		}
		return ""
	}
	assert.Equal(t, "Jana", takenBy(booker, a1.ID))
	assert.Equal(t, "Peter", takenBy(booker, a2.ID))

	assert.Eventually(t, func() bool {
		return takenBy(watcher, a1.ID) == "Jana" && takenBy(watcher, a2.ID) == "Peter"
	}, 5*time.Second, 20*time.Millisecond)

	deliveries, err := notifications.SubscribeNotifications(ctx)
	require.NoError(t, err)
	select {
	case d := <-deliveries:
		assert.Equal(t, []model.NotifiedSeat{{Seat: "A1", Name: "Jana"}, {Seat: "A2", Name: "Peter"}}, d.Data.Seats)
		d.Ack()
	case <-time.After(time.Second):
		t.Fatal("no notification queued")
	}
}
