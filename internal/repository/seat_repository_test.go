package repository_test

import (
	"cinema-seat-booking/internal/repository"
	"cinema-seat-booking/internal/testutil"
	apperrors "cinema-seat-booking/pkg/app_errors"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatRepository_ProvisionAndList(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := repository.NewSeatRepository(pool)
	ctx := context.Background()

	created, err := repo.Provision(ctx, []string{"B", "A"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	// provisioning again is a no-op
	created, err = repo.Provision(ctx, []string{"A"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	seats, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, seats, 6)

	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label())
		assert.False(t, s.IsTaken)
		assert.Nil(t, s.BookedBy)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, labels)

	_, err = repo.Provision(ctx, nil, 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSeatRepository_MarkTaken(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := repository.NewSeatRepository(pool)
	ctx := context.Background()

	testutil.InsertSeat(t, pool, "A", 1)

	t.Run("last write wins", func(t *testing.T) {
		seat, err := repo.MarkTaken(ctx, "A", 1, "Jana", false)
		require.NoError(t, err)
		assert.True(t, seat.IsTaken)
		assert.Equal(t, "Jana", *seat.BookedBy)

		seat, err = repo.MarkTaken(ctx, "A", 1, "Peter", false)
		require.NoError(t, err)
		assert.Equal(t, "Peter", *seat.BookedBy)
	})

	t.Run("exclusive rejects taken seat", func(t *testing.T) {
		_, err := repo.MarkTaken(ctx, "A", 1, "Eva", true)
		assert.ErrorIs(t, err, apperrors.ErrSeatAlreadyTaken)

		seat, err := repo.FindByPosition(ctx, "A", 1)
		require.NoError(t, err)
		assert.Equal(t, "Peter", *seat.BookedBy)
	})

	t.Run("unknown seat", func(t *testing.T) {
		_, err := repo.MarkTaken(ctx, "Z", 99, "Eva", false)
		assert.ErrorIs(t, err, apperrors.ErrSeatNotFound)

		_, err = repo.MarkTaken(ctx, "Z", 99, "Eva", true)
		assert.ErrorIs(t, err, apperrors.ErrSeatNotFound)
	})
}

func TestSeatRepository_WithTxRollsBack(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := repository.NewSeatRepository(pool)
	ctx := context.Background()

	testutil.InsertSeat(t, pool, "A", 1)
	testutil.InsertSeat(t, pool, "A", 2)

	err := repo.WithTx(ctx, func(ctx context.Context) error {
		if _, err := repo.MarkTaken(ctx, "A", 1, "Jana", false); err != nil {
			return err
		}
		_, err := repo.MarkTaken(ctx, "A", 3, "Peter", false)
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrSeatNotFound)

	seat, err := repo.FindByPosition(ctx, "A", 1)
	require.NoError(t, err)
	assert.False(t, seat.IsTaken, "first update must be rolled back")
	assert.Nil(t, seat.BookedBy)
}

func TestSeatRepository_ConcurrentMarkTaken(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := repository.NewSeatRepository(pool)
	ctx := context.Background()

	testutil.InsertSeat(t, pool, "B", 5)
	names := []string{"Jana", "Peter", "Eva", "Marek"}

	t.Run("last write wins leaves one name", func(t *testing.T) {
		var wg sync.WaitGroup
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				_, err := repo.MarkTaken(ctx, "B", 5, name, false)
				assert.NoError(t, err)
			}(name)
		}
		wg.Wait()

		seat, err := repo.FindByPosition(ctx, "B", 5)
		require.NoError(t, err)
		assert.True(t, seat.IsTaken)
		require.NotNil(t, seat.BookedBy)
		assert.Contains(t, names, *seat.BookedBy)
	})

	t.Run("exclusive admits exactly one", func(t *testing.T) {
		testutil.TruncateSeats(t, pool)
		testutil.InsertSeat(t, pool, "B", 5)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
		)
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				_, err := repo.MarkTaken(ctx, "B", 5, name, true)
				if err == nil {
					mu.Lock()
					winners = append(winners, name)
					mu.Unlock()
					return
				}
				assert.True(t, errors.Is(err, apperrors.ErrSeatAlreadyTaken), "unexpected error: %v", err)
			}(name)
		}
		wg.Wait()

		require.Len(t, winners, 1)
		seat, err := repo.FindByPosition(ctx, "B", 5)
		require.NoError(t, err)
		assert.Equal(t, winners[0], *seat.BookedBy)
	})
}
