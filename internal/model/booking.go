package model

import "strings"

// SeatBooking is one (row, number, name) tuple of a booking request.
// row_label is accepted as an alias of seat_row.
type SeatBooking struct {
	SeatRow    string `json:"seat_row"`
	RowLabel   string `json:"row_label,omitempty"`
	SeatNumber int    `json:"seat_number"`
	Name       string `json:"name"`
}

// Row returns the row label, preferring seat_row over row_label.
func (b SeatBooking) Row() string {
	if row := strings.TrimSpace(b.SeatRow); row != "" {
		return row
	}
	return strings.TrimSpace(b.RowLabel)
}

func (b SeatBooking) Label() string {
	return SeatLabel(b.Row(), b.SeatNumber)
}

// BookingRequest is the body accepted by the booking endpoint.
type BookingRequest struct {
	Seats []SeatBooking `json:"seats"`
}

// BookingResponse is returned when every seat of the request was updated.
type BookingResponse struct {
	Success     bool `json:"success"`
	BookedSeats int  `json:"booked_seats"`
}
