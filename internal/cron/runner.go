package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules jobs with a seconds field. A job still running when its next
// tick fires is skipped, and a panicking job is recovered.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := zapCronLogger{logger.Sugar()}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(schedule string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(schedule, func() {
		job(r.baseCtx)
	})
}

// Entries returns the number of scheduled jobs.
func (r *Runner) Entries() int {
	return len(r.cron.Entries())
}

func (r *Runner) Start() {
	r.logger.Info("cron started", zap.Int("jobs", r.Entries()))
	r.cron.Start()
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

type zapCronLogger struct {
	s *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
