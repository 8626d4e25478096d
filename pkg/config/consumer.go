package config

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

type Consumer struct {
	channel *amqp.Channel
	queue   string
}

func NewConsumer(queueName string) (*Consumer, error) {
	ch, err := RabbitMQ.Channel()
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return nil, err
	}

	// one command in flight at a time
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, err
	}

	return &Consumer{
		channel: ch,
		queue:   q.Name,
	}, nil
}

// Consume hands each delivery to handler until ctx is cancelled or the channel closes.
// A failed delivery is requeued only when requeue reports true for its error; otherwise
// it is dropped.
func (c *Consumer) Consume(ctx context.Context, handler func([]byte) error, requeue func(error) bool) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return err
	}

	log.WithField("queue", c.queue).Info("Consumer is running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			if err := handler(msg.Body); err != nil {
				retry := requeue != nil && requeue(err)
				log.WithFields(log.Fields{
					"queue":   c.queue,
					"requeue": retry,
					"error":   err.Error(),
				}).Error("Handle msg failed")
				msg.Nack(false, retry)
				continue
			}
			msg.Ack(false) // successfully processed the message
		}
	}
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
