package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	logrus "github.com/sirupsen/logrus"

	"lpcontrol/internal/handlers/business"
	"lpcontrol/pkg/config"
)

const (
	// 超过该时间仍未上链的提交视为过期
	pendingMaxAge = 10 * time.Minute
	sweepBatch    = 200
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.InitDB(s)

	executor, err := business.NewExecutor(ctx, s)
	if err != nil {
		logrus.Fatal("Failed to select RPC endpoint: ", err)
	}
	svc := business.NewServiceFromSettings(executor, business.NewGormJournal(config.DB), s)

	// 单次执行未结束时跳过下一次触发
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err = c.AddFunc(s.SweepSchedule, func() {
		stats, err := svc.SweepPending(ctx, pendingMaxAge, sweepBatch)
		if err != nil {
			logrus.Errorf("Sweep failed: %v", err)
			return
		}
		if stats.Checked > 0 {
			logrus.WithFields(logrus.Fields{
				"checked":   stats.Checked,
				"confirmed": stats.Confirmed,
				"failed":    stats.Failed,
				"expired":   stats.Expired,
			}).Info("Sweep done")
		}
	})
	if err != nil {
		logrus.Fatal("Failed to schedule sweep: ", err)
	}

	c.Start()
	logrus.WithField("schedule", s.SweepSchedule).Info("Submission sweeper started")

	<-ctx.Done()
	<-c.Stop().Done()
	logrus.Info("Submission sweeper stopped")
}
