package scheduler

import (
	"context"
	"fmt"

	applogger "FinSignal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on cron expressions with a seconds field. A job that
// is still running when its next tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
	l    *applogger.Logger
	ctx  context.Context
	stop context.CancelFunc
}

func New(l *applogger.Logger) *Scheduler {
	cl := cronLogger{l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		l:    l,
		ctx:  ctx,
		stop: cancel,
	}
}

// Add registers job under name. The job context is cancelled by Stop.
func (s *Scheduler) Add(name, spec string, job func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.l.Info("scheduled job started", applogger.String("job", name))
		job(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.l.Info("job scheduled", applogger.String("job", name), applogger.String("schedule", spec))
	return nil
}

// Len is the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stop()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduled jobs: %w", ctx.Err())
	}
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{ l *applogger.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug("cron: "+msg, applogger.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, applogger.Error(err), applogger.Any("kv", kv))
}
