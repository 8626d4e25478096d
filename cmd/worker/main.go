package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logrus "github.com/sirupsen/logrus"

	"lpcontrol/internal/handlers/business"
	"lpcontrol/pkg/config"
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})

	s, err := config.Load("", nil)
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}
	if level, err := logrus.ParseLevel(s.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.InitDB(s)
	config.InitRabbitMQ(s)
	defer config.RabbitMQ.Close()

	executor, err := business.NewExecutor(ctx, s)
	if err != nil {
		logrus.Fatal("Failed to select RPC endpoint: ", err)
	}
	svc := business.NewServiceFromSettings(executor, business.NewGormJournal(config.DB), s)

	msgConsumer, err := config.NewConsumer(s.CommandQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.WithField("queue", s.CommandQueue).Info("Position worker started, waiting for commands...")

	err = msgConsumer.Consume(ctx, func(msg []byte) error {
		cmd, err := business.DecodeCommand(msg)
		if err != nil {
			logrus.Errorf("Failed to decode command: %v", err)
			return err
		}

		fields := logrus.Fields{
			"op":         cmd.Op,
			"request_id": cmd.RequestID,
		}
		res, err := svc.Dispatch(ctx, cmd)
		if err != nil {
			fields["error"] = err.Error()
			fields["requeue"] = business.ShouldRequeue(err)
			logrus.WithFields(fields).Error("Command failed")
			return err
		}

		fields["signature"] = res.Signature
		fields["status"] = res.Status
		logrus.WithFields(fields).Info("Command done")
		return nil
	}, business.ShouldRequeue)

	if err != nil && ctx.Err() == nil {
		logrus.Fatal("Consumer stopped: ", err)
	}
	logrus.Info("Position worker stopped")
}
