package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/domain"
)

// Parser accepts standard five-field specs, an optional leading seconds field
// and descriptors such as "@daily" or "@every 1h".
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Runner checks every target once.
type Runner interface {
	RunAll(ctx context.Context) []domain.CheckResult
}

type Rechecker struct {
	Logger     *zap.Logger
	Runner     Runner
	Schedule   string
	Location   *time.Location
	RunOnStart bool

	sched cron.Schedule
}

func NewRechecker(
	logger *zap.Logger,
	runner Runner,
	schedule string,
	loc *time.Location,
	runOnStart bool,
) (*Rechecker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	sched, err := Parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return &Rechecker{
		Logger:     logger,
		Runner:     runner,
		Schedule:   schedule,
		Location:   loc,
		RunOnStart: runOnStart,
		sched:      sched,
	}, nil
}

// Next reports when the schedule fires after t.
func (r *Rechecker) Next(t time.Time) time.Time {
	return r.sched.Next(t.In(r.Location))
}

// Run blocks until ctx is cancelled, firing a batch on every schedule tick.
// A tick that arrives while the previous batch is still running is skipped.
// On return no batch is in flight.
func (r *Rechecker) Run(ctx context.Context) {
	c := cron.New(
		cron.WithLocation(r.Location),
		cron.WithParser(Parser),
		cron.WithLogger(cronLogger{r.Logger}),
		cron.WithChain(cron.Recover(cronLogger{r.Logger}), cron.SkipIfStillRunning(cronLogger{r.Logger})),
	)
	c.Schedule(r.sched, cron.FuncJob(func() { r.runOnce(ctx) }))

	c.Start()
	r.Logger.Info("rechecker_started",
		zap.String("schedule", r.Schedule),
		zap.String("timezone", r.Location.String()),
		zap.Time("next_run", r.Next(time.Now())),
	)

	if r.RunOnStart {
		r.runOnce(ctx)
	}

	<-ctx.Done()
	<-c.Stop().Done()
	r.Logger.Info("rechecker_stopped")
}

func (r *Rechecker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	results := r.Runner.RunAll(ctx)

	var changed, failed int
	for _, res := range results {
		if res.Changed() {
			changed++
		}
		if res.Failed() {
			failed++
			r.Logger.Warn("rechecker_target_error",
				zap.String("target", res.Target),
				zap.String("error", res.Error),
			)
		}
	}
	r.Logger.Info("rechecker_run_complete",
		zap.Int("targets", len(results)),
		zap.Int("changed", changed),
		zap.Int("errors", failed),
	)
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron_"+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
