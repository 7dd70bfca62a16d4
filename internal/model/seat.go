package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Seat is one row of the seats table.
type Seat struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RowLabel   string    `json:"row_label" db:"row_label"`
	SeatNumber int       `json:"seat_number" db:"seat_number"`
	IsTaken    bool      `json:"is_taken" db:"is_taken"`
	BookedBy   *string   `json:"booked_by" db:"booked_by"`
	UpdatedAt  time.Time `json:"updated_at,omitzero" db:"updated_at"`
}

// Label renders the seat as row followed by number, e.g. "A7".
func (s *Seat) Label() string {
	return SeatLabel(s.RowLabel, s.SeatNumber)
}

func SeatLabel(row string, number int) string {
	return row + strconv.Itoa(number)
}

// CompareSeats orders by row label, then seat number. The id breaks ties so
// the order is total even if the store ever held duplicates.
func CompareSeats(a, b Seat) int {
	if c := strings.Compare(a.RowLabel, b.RowLabel); c != 0 {
		return c
	}
	if a.SeatNumber != b.SeatNumber {
		if a.SeatNumber < b.SeatNumber {
			return -1
		}
		return 1
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
