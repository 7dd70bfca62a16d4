package testutil

import (
	"cinema-seat-booking/config"
	"cinema-seat-booking/internal/database"
	"cinema-seat-booking/migrations"
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const testDBLockID int64 = 730146222

// NewTestPool connects to the test Postgres instance, applies migrations and
// serialises the calling test against other packages using the same database.
// The test is skipped when the instance is not reachable.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg := config.LoadTestConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		t.Skipf("skipping Postgres integration test: %v", err)
	}
	t.Cleanup(pool.Close)

	lockTestDB(t, pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	TruncateSeats(t, pool)

	return pool
}

// NewTestRedis connects to the test Redis instance or skips the test.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	cfg := config.LoadTestConfig()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		t.Skipf("skipping Redis integration test: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TruncateSeats(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), `TRUNCATE seats`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

// InsertSeat creates a free seat and returns its id.
func InsertSeat(t *testing.T, pool *pgxpool.Pool, row string, number int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO seats (row_label, seat_number) VALUES ($1, $2) RETURNING id::text`,
		row, number,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert seat: %v", err)
	}
	return id
}

func lockTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		conn.Release()
	})
}
