package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// newCron builds a seconds-resolution scheduler whose jobs never overlap and
// whose panics end only the current tick.
func newCron(logger *zap.Logger) *cron.Cron {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

// scheduleEvery registers job at the given interval. A rejected schedule is
// logged and leaves the job unscheduled.
func scheduleEvery(c *cron.Cron, logger *zap.Logger, name string, interval time.Duration, job func()) {
	expr := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := c.AddFunc(expr, job); err != nil {
		logger.Error("schedule rejected",
			zap.String("job", name),
			zap.String("schedule", expr),
			zap.Error(err))
	}
}
