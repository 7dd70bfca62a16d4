package service

import (
	"cinema-seat-booking/internal/cache"
	"cinema-seat-booking/internal/metrics"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/internal/queue"
	"cinema-seat-booking/internal/repository"
	apperrors "cinema-seat-booking/pkg/app_errors"
	"cinema-seat-booking/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type SeatService interface {
	// List returns every seat ordered by row label, then seat number.
	List(ctx context.Context) ([]*model.Seat, error)
	// BookSeats marks every requested seat taken in one transaction and
	// queues a seats_booked notification once the transaction committed.
	BookSeats(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error)
	// InvalidateSeatMap drops the cached seat list.
	InvalidateSeatMap(ctx context.Context)
}

type SeatServiceImpl struct {
	repository repository.SeatRepository
	cache      cache.SeatMapCache
	queue      queue.NotificationQueue
	exclusive  bool
	now        func() time.Time
	log        *zap.Logger
}

type Option func(*SeatServiceImpl)

// WithCache enables the read-through seat map cache.
func WithCache(c cache.SeatMapCache) Option {
	return func(s *SeatServiceImpl) { s.cache = c }
}

// WithNotificationQueue enables seats_booked notifications.
func WithNotificationQueue(q queue.NotificationQueue) Option {
	return func(s *SeatServiceImpl) { s.queue = q }
}

// WithExclusiveBooking makes a batch fail when one of its seats is already taken.
func WithExclusiveBooking(exclusive bool) Option {
	return func(s *SeatServiceImpl) { s.exclusive = exclusive }
}

func WithClock(now func() time.Time) Option {
	return func(s *SeatServiceImpl) { s.now = now }
}

func NewSeatService(seatRepository repository.SeatRepository, opts ...Option) SeatService {
	s := &SeatServiceImpl{
		repository: seatRepository,
		now:        time.Now,
		log:        logger.WithComponent("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SeatServiceImpl) List(ctx context.Context) ([]*model.Seat, error) {
	if s.cache == nil {
		return s.repository.List(ctx)
	}

	cached, generation, hit, err := s.cache.Load(ctx)
	if err != nil {
		s.log.Warn("seat map cache load failed", zap.Error(err))
		return s.repository.List(ctx)
	}
	if hit {
		return cached, nil
	}

	seats, err := s.repository.List(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.Store(ctx, generation, seats); err != nil {
		s.log.Warn("seat map cache store failed", zap.Error(err))
	}
	return seats, nil
}

func (s *SeatServiceImpl) BookSeats(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error) {
	seats, err := normalizeBooking(req)
	if err != nil {
		metrics.IncBookingRequest("invalid")
		return nil, err
	}

	err = s.repository.WithTx(ctx, func(ctx context.Context) error {
		for _, b := range seats {
			if _, err := s.repository.MarkTaken(ctx, b.Row(), b.SeatNumber, b.Name, s.exclusive); err != nil {
				return fmt.Errorf("book seat %s: %w", b.Label(), err)
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSeatAlreadyTaken):
			metrics.IncBookingRequest("conflict")
		case errors.Is(err, apperrors.ErrSeatNotFound):
			metrics.IncBookingRequest("not_found")
		default:
			metrics.IncBookingRequest("failed")
		}
		return nil, err
	}

	metrics.IncBookingRequest("booked")
	metrics.AddSeatsBooked(len(seats))
	s.log.Info("seats booked", zap.Int("seats", len(seats)))

	// the booking is durable from here on; follow-ups must not fail it and
	// must survive the caller going away
	followCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	s.InvalidateSeatMap(followCtx)
	s.enqueueNotification(followCtx, seats)

	return &model.BookingResponse{Success: true, BookedSeats: len(seats)}, nil
}

func (s *SeatServiceImpl) InvalidateSeatMap(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("seat map cache invalidation failed", zap.Error(err))
	}
}

func (s *SeatServiceImpl) enqueueNotification(ctx context.Context, seats []model.SeatBooking) {
	if s.queue == nil {
		return
	}
	n := model.NewBookingNotification(seats, s.now())
	if err := s.queue.PublishNotification(ctx, n); err != nil {
		metrics.IncWebhookDelivery("dropped")
		s.log.Warn("failed to queue booking notification", zap.Int("seats", len(seats)), zap.Error(err))
	}
}

// normalizeBooking validates an untrusted request and returns its seats with
// row labels resolved and names trimmed.
func normalizeBooking(req model.BookingRequest) ([]model.SeatBooking, error) {
	if len(req.Seats) == 0 {
		return nil, apperrors.ErrEmptyBooking
	}

	seats := make([]model.SeatBooking, 0, len(req.Seats))
	for i, b := range req.Seats {
		row := b.Row()
		name := strings.TrimSpace(b.Name)
		switch {
		case row == "":
			return nil, fmt.Errorf("%w: seat %d has no row", apperrors.ErrInvalidInput, i)
		case b.SeatNumber <= 0:
			return nil, fmt.Errorf("%w: seat %d has no valid seat number", apperrors.ErrInvalidInput, i)
		case name == "":
			return nil, fmt.Errorf("%w: seat %s has no name", apperrors.ErrInvalidInput, model.SeatLabel(row, b.SeatNumber))
		}
		seats = append(seats, model.SeatBooking{SeatRow: row, SeatNumber: b.SeatNumber, Name: name})
	}
	return seats, nil
}
