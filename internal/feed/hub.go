package feed

import (
	"cinema-seat-booking/internal/metrics"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/pkg/logger"
	"context"

	"go.uber.org/zap"
)

type Msg interface{ isHubMsg() }

type Join struct {
	ClientID string
	Outbox   chan model.ChangeEvent // closed by the hub on Leave, drop or shutdown
}

type Leave struct{ ClientID string }

type Publish struct {
	Event model.ChangeEvent
}

type CountSubscribers struct {
	Reply chan int
}

type Shutdown struct{}

func (Join) isHubMsg()             {}
func (Leave) isHubMsg()            {}
func (Publish) isHubMsg()          {}
func (CountSubscribers) isHubMsg() {}
func (Shutdown) isHubMsg()         {}

// Hub fans change events out to websocket subscribers. All state is owned by
// the loop goroutine; a subscriber whose outbox is full is dropped.
type Hub struct {
	inbox   chan Msg
	clients map[string]chan model.ChangeEvent
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan model.ChangeEvent),
		ctx:     ctx,
		cancel:  cancel,
		log:     logger.WithComponent("feed_hub"),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

// Send delivers msg to the loop unless the hub has shut down.
func (h *Hub) Send(msg Msg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- msg:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Broadcast is the listener-facing entry point.
func (h *Hub) Broadcast(_ context.Context, ev model.ChangeEvent) {
	h.Send(Publish{Event: ev})
}

// Subscribers returns the number of connected clients, or -1 after shutdown.
func (h *Hub) Subscribers() int {
	reply := make(chan int, 1)
	if !h.Send(CountSubscribers{Reply: reply}) {
		return -1
	}
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return -1
	}
}

// Done is closed once the hub stopped.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				if old, ok := h.clients[msg.ClientID]; ok {
					close(old)
				}
				h.clients[msg.ClientID] = msg.Outbox
				h.log.Debug("subscriber joined", zap.String("client_id", msg.ClientID))

			case Leave:
				if ch, ok := h.clients[msg.ClientID]; ok {
					close(ch)
					delete(h.clients, msg.ClientID)
					h.log.Debug("subscriber left", zap.String("client_id", msg.ClientID))
				}

			case Publish:
				h.broadcast(msg.Event)

			case CountSubscribers:
				msg.Reply <- len(h.clients)

			case Shutdown:
				h.shutdown()
				return
			}
			metrics.SetFeedSubscribers(len(h.clients))
		}
	}
}

func (h *Hub) shutdown() {
	// cancel first so subscribers seeing a closed outbox can tell shutdown from a drop
	h.cancel()
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
	metrics.SetFeedSubscribers(0)
}

func (h *Hub) broadcast(ev model.ChangeEvent) {
	for id, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			h.log.Warn("dropping slow subscriber", zap.String("client_id", id))
			close(ch)
			delete(h.clients, id)
		}
	}
}
