package main

import (
	"time"

	"github.com/robfig/cron/v3"
)

const limiterIdleTimeout = 10 * time.Minute

// startBackground schedules housekeeping jobs. The returned scheduler must
// be stopped on shutdown.
func (app *application) startBackground() (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	if _, err := c.AddFunc("@every 5m", app.sweepLimiter); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

func (app *application) sweepLimiter() {
	removed := app.limiter.Sweep(limiterIdleTimeout)
	if removed > 0 {
		app.infoLog.WithField("removed", removed).Debug("rate limiter swept")
	}
}
