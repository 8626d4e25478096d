package main

import (
	"context"

	logrus "github.com/sirupsen/logrus"

	"lpcontrol/internal/handlers"
	"lpcontrol/internal/handlers/business"
	"lpcontrol/internal/middleware"
	"lpcontrol/internal/routes"
	"lpcontrol/pkg/config"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	s, err := config.Load("", nil)
	if err != nil {
		logrus.Fatal("Failed to load settings: ", err)
	}
	if level, err := logrus.ParseLevel(s.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Initialize database
	config.InitDB(s)
	config.ExecuteMigrations(s.MigrationsPath)

	executor, err := business.NewExecutor(context.Background(), s)
	if err != nil {
		logrus.Fatal("Failed to select RPC endpoint: ", err)
	}
	svc := business.NewServiceFromSettings(executor, business.NewGormJournal(config.DB), s)

	// Async commands are optional, the api works without RabbitMQ
	var publisher handlers.CommandPublisher
	if s.RabbitMQHost != "" {
		config.InitRabbitMQ(s)
		defer config.RabbitMQ.Close()

		p, err := config.NewPublisher()
		if err != nil {
			logrus.Fatal("Failed to create publisher: ", err)
		}
		defer p.Close()
		publisher = p
	} else {
		logrus.Warn("RabbitMQ not configured, async requests are disabled")
	}

	r := routes.SetupRouter(routes.RouterConfig{
		AllowedOrigins: s.AllowedOrigins,
		RateLimit: middleware.RateLimiterConfig{
			RequestsPerSecond: s.APIRPS,
			Burst:             s.APIBurst,
		},
	}, handlers.NewClmmHandler(svc, publisher, s.CommandQueue))

	logrus.WithField("port", s.Port).Info("API server starting")
	if err := r.Run(":" + s.Port); err != nil {
		logrus.Fatal("Failed to start server: ", err)
	}
}
