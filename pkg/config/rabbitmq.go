package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

var RabbitMQ *amqp.Connection

// InitRabbitMQ RabbitMQ with retry logic
func InitRabbitMQ(s Settings) {
	maxRetries := 10
	retryDelay := 3 * time.Second

	var conn *amqp.Connection
	var err error

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(s.AMQPURL())
		if err == nil {
			RabbitMQ = conn
			log.WithField("host", s.RabbitMQHost).Info("Successfully connected to RabbitMQ")
			return
		}

		if i < maxRetries-1 {
			log.WithFields(log.Fields{
				"attempt": i + 1,
				"max":     maxRetries,
				"error":   err.Error(),
			}).Warnf("Failed to connect to RabbitMQ, retrying in %v", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	log.Fatalf("Failed to connect to RabbitMQ after %d attempts: %v", maxRetries, err)
}

// PurgeQueue removes all pending commands from a queue without deleting it.
func PurgeQueue(queueName string) (int, error) {
	if RabbitMQ == nil {
		return 0, fmt.Errorf("RabbitMQ connection not initialized")
	}

	ch, err := RabbitMQ.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	n, err := ch.QueuePurge(queueName, false)
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue %s: %w", queueName, err)
	}

	log.WithFields(log.Fields{
		"queue":    queueName,
		"messages": n,
	}).Info("Purged RabbitMQ queue")
	return n, nil
}
