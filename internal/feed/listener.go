package feed

import (
	"cinema-seat-booking/internal/metrics"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Channel is the notification channel the seats trigger publishes on.
const Channel = "seat_changes"

// Handler receives every decoded change event, in commit order.
type Handler func(ctx context.Context, ev model.ChangeEvent)

// Listener turns pg_notify payloads on one channel into change events. It
// holds a dedicated connection taken out of the pool and reconnects after a
// fixed wait when that connection breaks.
type Listener struct {
	pool          *pgxpool.Pool
	channel       string
	reconnectWait time.Duration
	handlers      []Handler
	log           *zap.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

func NewListener(pool *pgxpool.Pool, channel string, reconnectWait time.Duration, handlers ...Handler) *Listener {
	if reconnectWait <= 0 {
		reconnectWait = time.Second
	}
	return &Listener{
		pool:          pool,
		channel:       channel,
		reconnectWait: reconnectWait,
		handlers:      handlers,
		log:           logger.WithComponent("feed_listener").With(zap.String("channel", channel)),
		ready:         make(chan struct{}),
	}
}

// Ready is closed once the first LISTEN succeeded.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

// Run listens until ctx is cancelled. Events committed while the connection
// is down are lost; subscribers recover by reloading the seat list.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.log.Info("listener stopped")
			return nil
		}
		l.log.Warn("listen connection lost, reconnecting", zap.Error(err), zap.Duration("wait", l.reconnectWait))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.reconnectWait):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	// the session keeps its LISTEN registration, so it never goes back to the pool
	conn := pooled.Hijack()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.log.Info("listening for seat changes")
	l.readyOnce.Do(func() { close(l.ready) })

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := DecodeEvent([]byte(n.Payload))
		if err != nil {
			l.log.Warn("discarding malformed change event", zap.Error(err))
			metrics.IncFeedEvent("malformed")
			continue
		}
		metrics.IncFeedEvent(string(ev.EventType))
		for _, h := range l.handlers {
			h(ctx, ev)
		}
	}
}

var ErrMalformedEvent = errors.New("malformed change event")

// DecodeEvent parses one notification payload.
func DecodeEvent(payload []byte) (model.ChangeEvent, error) {
	var ev model.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if !ev.Valid() {
		return ev, fmt.Errorf("%w: %q without row data", ErrMalformedEvent, ev.EventType)
	}
	return ev, nil
}
