package worker

import (
	"cinema-seat-booking/internal/metrics"
	"cinema-seat-booking/internal/notify"
	"cinema-seat-booking/internal/queue"
	"cinema-seat-booking/pkg/logger"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type NotificationWorker interface {
	// Start subscribes to the queue and delivers notifications until ctx is done.
	Start(ctx context.Context) error
	// Wait blocks until the delivery loop has exited.
	Wait()
}

type NotificationWorkerImpl struct {
	queue    queue.NotificationQueue
	notifier notify.Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewNotificationWorker(q queue.NotificationQueue, notifier notify.Notifier, timeout time.Duration) NotificationWorker {
	return &NotificationWorkerImpl{
		queue:    q,
		notifier: notifier,
		timeout:  timeout,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeNotifications(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("webhook")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range msgs {
			w.deliver(ctx, log, msg)
		}
	}()
	return nil
}

// deliver makes one attempt. Failed deliveries are logged and acknowledged:
// the webhook is a best-effort side channel and is never retried. An attempt
// cut short by shutdown is nacked with requeue so the next worker makes it.
func (w *NotificationWorkerImpl) deliver(ctx context.Context, log *zap.Logger, msg queue.Delivery) {
	callCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	err := w.notifier.Notify(callCtx, msg.Data)
	if err != nil && ctx.Err() != nil {
		msg.Nack(true)
		metrics.IncWebhookDelivery("interrupted")
		log.Info("webhook delivery interrupted by shutdown, requeued",
			zap.Int("seats", len(msg.Data.Seats)),
			zap.Error(err),
		)
		return
	}
	msg.Ack()

	if err != nil {
		metrics.IncWebhookDelivery("failed")
		log.Warn("webhook delivery failed",
			zap.Int("seats", len(msg.Data.Seats)),
			zap.String("timestamp", msg.Data.Timestamp),
			zap.Error(err),
		)
		return
	}
	metrics.IncWebhookDelivery("delivered")
	log.Info("webhook delivered", zap.Int("seats", len(msg.Data.Seats)))
}

func (w *NotificationWorkerImpl) Wait() {
	w.wg.Wait()
}
