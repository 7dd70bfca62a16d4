package client

import (
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/pkg/logger"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// FeedSubscriber reads seat change events from the websocket feed.
type FeedSubscriber struct {
	url           string
	reconnectWait time.Duration
	log           *zap.Logger
}

func NewFeedSubscriber(baseURL string, reconnectWait time.Duration) *FeedSubscriber {
	if reconnectWait <= 0 {
		reconnectWait = time.Second
	}
	url := strings.TrimRight(baseURL, "/") + "/api/v1/seats/feed"
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return &FeedSubscriber{url: url, reconnectWait: reconnectWait, log: logger.WithComponent("feed_subscriber")}
}

// Run delivers events to handle until ctx is cancelled, redialling after a
// dropped connection. onConnect runs after every successful dial so the
// caller can reload whatever it missed while disconnected.
func (s *FeedSubscriber) Run(ctx context.Context, handle func(model.ChangeEvent), onConnect func()) error {
	for {
		err := s.consume(ctx, handle, onConnect)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("feed connection lost", zap.Error(err), zap.Duration("wait", s.reconnectWait))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectWait):
		}
	}
}

func (s *FeedSubscriber) consume(ctx context.Context, handle func(model.ChangeEvent), onConnect func()) error {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()
	s.log.Info("subscribed to seat changes", zap.String("url", s.url))

	if onConnect != nil {
		onConnect()
	}

	for {
		var ev model.ChangeEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return errors.New("feed closed by server")
			}
			return err
		}
		if !ev.Valid() {
			s.log.Warn("ignoring malformed change event", zap.String("event_type", string(ev.EventType)))
			continue
		}
		handle(ev)
	}
}
