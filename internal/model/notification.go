package model

import "time"

const EventSeatsBooked = "seats_booked"

// timestamps are rendered like JavaScript's toISOString
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type NotifiedSeat struct {
	Seat string `json:"seat"`
	Name string `json:"name"`
}

// BookingNotification is the payload POSTed to the webhook after a booking.
type BookingNotification struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Seats     []NotifiedSeat `json:"seats"`
}

func NewBookingNotification(seats []SeatBooking, at time.Time) *BookingNotification {
	notified := make([]NotifiedSeat, 0, len(seats))
	for _, s := range seats {
		notified = append(notified, NotifiedSeat{Seat: s.Label(), Name: s.Name})
	}
	return &BookingNotification{
		Event:     EventSeatsBooked,
		Timestamp: at.UTC().Format(isoMillis),
		Seats:     notified,
	}
}
