package handler

import (
	"cinema-seat-booking/internal/feed"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/pkg/logger"
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const feedWriteTimeout = 5 * time.Second

// FeedHandler streams seat change events to websocket subscribers. Clients
// only receive; anything they send is discarded.
type FeedHandler struct {
	hub          *feed.Hub
	clientBuffer int
	log          *zap.Logger
}

func NewFeedHandler(hub *feed.Hub, clientBuffer int) *FeedHandler {
	if clientBuffer <= 0 {
		clientBuffer = 64
	}
	return &FeedHandler{hub: hub, clientBuffer: clientBuffer, log: logger.WithComponent("feed_handler")}
}

func (h *FeedHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("seats/feed", h.Subscribe)
	}
}

func (h *FeedHandler) Subscribe(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	clientID := uuid.NewString()
	log := h.log.With(zap.String("client_id", clientID))

	out := make(chan model.ChangeEvent, h.clientBuffer)
	if !h.hub.Send(feed.Join{ClientID: clientID, Outbox: out}) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.Send(feed.Leave{ClientID: clientID})

	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			log.Debug("subscriber disconnected")
			return

		case ev, ok := <-out:
			if !ok {
				select {
				case <-h.hub.Done():
					conn.Close(websocket.StatusGoingAway, "server shutting down")
				default:
					log.Warn("subscriber fell behind")
					conn.Close(websocket.StatusTryAgainLater, "too slow")
				}
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}
