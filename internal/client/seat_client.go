package client

import (
	"bytes"
	"cinema-seat-booking/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SeatClient talks to the booking API over HTTP.
type SeatClient struct {
	baseURL string
	http    *http.Client
}

func NewSeatClient(baseURL string, timeout time.Duration) *SeatClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SeatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// ListSeats fetches the full seat map ordered by row, then seat number.
func (c *SeatClient) ListSeats(ctx context.Context) ([]model.Seat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/seats", nil)
	if err != nil {
		return nil, err
	}

	var seats []model.Seat
	if err := c.do(req, &seats); err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return seats, nil
}

// BookSeats invokes the booking function once for the whole batch.
func (c *SeatClient) BookSeats(ctx context.Context, seats []model.SeatBooking) (*model.BookingResponse, error) {
	body, err := json.Marshal(model.BookingRequest{Seats: seats})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/v1/book-seats", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp model.BookingResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("book seats: %w", err)
	}
	return &resp, nil
}

func (c *SeatClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &payload)
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
