package client_test

import (
	"cinema-seat-booking/internal/client"
	"cinema-seat-booking/internal/model"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatClient_ListSeats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/seats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"8f9b7c1e-4b7a-4f55-9a55-0d4c2b0b6a11","row_label":"A","seat_number":1,"is_taken":true,"booked_by":"Jana"},{"id":"1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f","row_label":"A","seat_number":2,"is_taken":false,"booked_by":null}]`))
	}))
	defer srv.Close()

	c := client.NewSeatClient(srv.URL+"/", time.Second)
	seats, err := c.ListSeats(context.Background())
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "A1", seats[0].Label())
	assert.Equal(t, "Jana", *seats[0].BookedBy)
	assert.False(t, seats[1].IsTaken)
}

func TestSeatClient_BookSeats(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got model.BookingRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/functions/v1/book-seats", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"success":true,"booked_seats":2}`))
		}))
		defer srv.Close()

		seats := []model.SeatBooking{
			{SeatRow: "A", SeatNumber: 1, Name: "Jana"},
			{SeatRow: "A", SeatNumber: 2, Name: "Peter"},
		}
		resp, err := client.NewSeatClient(srv.URL, time.Second).BookSeats(context.Background(), seats)
		require.NoError(t, err)
		assert.Equal(t, &model.BookingResponse{Success: true, BookedSeats: 2}, resp)
		assert.Equal(t, seats, got.Seats)
	})

	t.Run("Failed - error payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"book seat A1: seat already taken"}`))
		}))
		defer srv.Close()

		_, err := client.NewSeatClient(srv.URL, time.Second).BookSeats(context.Background(), []model.SeatBooking{{SeatRow: "A", SeatNumber: 1, Name: "Jana"}})
		require.Error(t, err)

		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "seat already taken")
	})

	t.Run("Failed - no payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := client.NewSeatClient(srv.URL, time.Second).BookSeats(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}
