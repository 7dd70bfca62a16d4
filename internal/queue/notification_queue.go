package queue

import (
	"cinema-seat-booking/internal/model"
	"context"
	"errors"
)

var ErrQueueFull = errors.New("notification queue full")

type Delivery struct {
	Data *model.BookingNotification
	Ack  func()
	Nack func(requeue bool)
}

// NotificationQueue carries seats_booked notifications from the booking path
// to the webhook worker.
type NotificationQueue interface {
	PublishNotification(ctx context.Context, n *model.BookingNotification) error
	SubscribeNotifications(ctx context.Context) (<-chan Delivery, error)
}

// NotificationQueueImpl is an in-process queue backed by a buffered channel.
type NotificationQueueImpl struct {
	ch chan *model.BookingNotification
}

func NewNotificationQueue(bufferSize int) NotificationQueue {
	return &NotificationQueueImpl{
		ch: make(chan *model.BookingNotification, bufferSize),
	}
}

// PublishNotification never blocks: a full buffer drops the notification.
func (q *NotificationQueueImpl) PublishNotification(ctx context.Context, n *model.BookingNotification) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *NotificationQueueImpl) SubscribeNotifications(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: n,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							select {
							case q.ch <- n:
							default:
							}
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
