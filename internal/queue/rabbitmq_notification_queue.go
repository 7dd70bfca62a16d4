package queue

import (
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const RabbitMQQueueName = "seats.booked"

// RabbitMQNotificationQueueImpl publishes notifications as persistent
// messages on a durable queue and consumes them with manual acks.
type RabbitMQNotificationQueueImpl struct {
	conn *amqp.Connection

	mu  sync.Mutex
	pub *amqp.Channel

	log *zap.Logger
}

func NewRabbitMQNotificationQueue(url string) (*RabbitMQNotificationQueueImpl, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declareQueue(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQNotificationQueueImpl{
		conn: conn,
		pub:  ch,
		log:  logger.WithComponent("mq"),
	}, nil
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		RabbitMQQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

func (q *RabbitMQNotificationQueueImpl) PublishNotification(ctx context.Context, n *model.BookingNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pub.PublishWithContext(ctx,
		"",                // default exchange
		RabbitMQQueueName, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (q *RabbitMQNotificationQueueImpl) SubscribeNotifications(ctx context.Context) (<-chan Delivery, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		q.log.Warn("set QoS failed", zap.Error(err))
	}
	if err := declareQueue(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}

	msgs, err := ch.Consume(RabbitMQQueueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer func() { _ = ch.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					q.log.Warn("deliveries channel closed")
					return
				}
				var n model.BookingNotification
				if err := json.Unmarshal(m.Body, &n); err != nil {
					q.log.Warn("unmarshal notification failed", zap.Error(err))
					_ = m.Nack(false, false)
					continue
				}
				d := Delivery{
					Data: &n,
					Ack:  func() { _ = m.Ack(false) },
					Nack: func(requeue bool) { _ = m.Nack(false, requeue) },
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

func (q *RabbitMQNotificationQueueImpl) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return multierr.Append(q.pub.Close(), q.conn.Close())
}
