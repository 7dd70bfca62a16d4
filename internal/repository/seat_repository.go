package repository

import (
	"cinema-seat-booking/internal/model"
	apperrors "cinema-seat-booking/pkg/app_errors"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SeatRepository interface {
	// WithTx runs fn in one transaction; repository calls made with the
	// context passed to fn join it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	List(ctx context.Context) ([]*model.Seat, error)
	FindByPosition(ctx context.Context, row string, number int) (*model.Seat, error)
	// MarkTaken sets is_taken and booked_by on the seat at (row, number).
	// With exclusive set, a seat that is already taken is left untouched and
	// ErrSeatAlreadyTaken is returned.
	MarkTaken(ctx context.Context, row string, number int, name string, exclusive bool) (*model.Seat, error)
	// Provision creates the seats 1..perRow of every row that do not exist yet.
	Provision(ctx context.Context, rows []string, perRow int) (int, error)
}

type SeatRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSeatRepository(pool *pgxpool.Pool) SeatRepository {
	return &SeatRepositoryImpl{
		pool: pool,
	}
}

const seatColumns = `id, row_label, seat_number, is_taken, booked_by, updated_at`

func scanSeat(row pgx.Row) (*model.Seat, error) {
	var seat model.Seat
	err := row.Scan(
		&seat.ID,
		&seat.RowLabel,
		&seat.SeatNumber,
		&seat.IsTaken,
		&seat.BookedBy,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *SeatRepositoryImpl) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SeatRepositoryImpl) List(ctx context.Context) ([]*model.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		ORDER BY row_label, seat_number
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]*model.Seat, 0)
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (r *SeatRepositoryImpl) FindByPosition(ctx context.Context, row string, number int) (*model.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE row_label = $1 AND seat_number = $2
	`

	seat, err := scanSeat(conn(ctx, r.pool).QueryRow(ctx, query, row, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSeatNotFound
		}
		return nil, err
	}
	return seat, nil
}

func (r *SeatRepositoryImpl) MarkTaken(ctx context.Context, row string, number int, name string, exclusive bool) (*model.Seat, error) {
	query := `
		UPDATE seats
		SET is_taken = TRUE, booked_by = $1, updated_at = clock_timestamp()
		WHERE row_label = $2 AND seat_number = $3
	`
	if exclusive {
		query += ` AND is_taken = FALSE`
	}
	query += ` RETURNING ` + seatColumns

	// clock_timestamp runs after the row lock is granted, so updated_at
	// follows commit order for each seat
	seat, err := scanSeat(conn(ctx, r.pool).QueryRow(ctx, query, name, row, number))
	if err == nil {
		return seat, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("mark seat %s taken: %w", model.SeatLabel(row, number), err)
	}
	if !exclusive {
		return nil, apperrors.ErrSeatNotFound
	}

	// nothing matched: either the seat does not exist or it is taken
	if _, err := r.FindByPosition(ctx, row, number); err != nil {
		if errors.Is(err, apperrors.ErrSeatNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("check seat %s: %w", model.SeatLabel(row, number), err)
	}
	return nil, apperrors.ErrSeatAlreadyTaken
}

func (r *SeatRepositoryImpl) Provision(ctx context.Context, rows []string, perRow int) (int, error) {
	if len(rows) == 0 || perRow <= 0 {
		return 0, apperrors.ErrInvalidInput
	}

	query := `
		INSERT INTO seats (row_label, seat_number)
		SELECT r, n
		FROM unnest($1::text[]) AS r, generate_series(1, $2::int) AS n
		ON CONFLICT (row_label, seat_number) DO NOTHING
	`

	result, err := conn(ctx, r.pool).Exec(ctx, query, rows, perRow)
	if err != nil {
		return 0, fmt.Errorf("provision seats: %w", err)
	}
	return int(result.RowsAffected()), nil
}
