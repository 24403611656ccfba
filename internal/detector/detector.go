// Package detector runs the per-target change check and fans it out over
// every configured target.
package detector

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/pagewatch/internal/domain"
	"github.com/hamed0406/pagewatch/internal/fingerprint"
	"github.com/hamed0406/pagewatch/internal/metrics"
	"github.com/hamed0406/pagewatch/internal/normalize"
	"github.com/hamed0406/pagewatch/internal/notify"
	"github.com/hamed0406/pagewatch/internal/repo"
)

// Fetcher returns the raw document for a target, or an error for transport
// failures and non-2xx responses.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
}

// Notifier delivers a change alert and reports what happened to it.
type Notifier interface {
	Notify(ctx context.Context, message string) notify.Result
}

// Hasher turns normalized content into a fingerprint.
type Hasher interface {
	Fingerprint(content string) string
}

// Detector compares each target's current content with its stored state.
type Detector struct {
	Logger   *zap.Logger
	Fetcher  Fetcher
	Store    repo.StateStore
	Notifier Notifier
	Hasher   Hasher
	Metrics  *metrics.Metrics
	Targets  []string

	now func() time.Time
}

// New returns a Detector that fingerprints with SHA-256. targets is copied.
func New(
	logger *zap.Logger,
	fetcher Fetcher,
	store repo.StateStore,
	notifier Notifier,
	m *metrics.Metrics,
	targets []string,
) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	ts := make([]string, len(targets))
	copy(ts, targets)
	return &Detector{
		Logger:   logger,
		Fetcher:  fetcher,
		Store:    store,
		Notifier: notifier,
		Hasher:   fingerprint.New(),
		Metrics:  m,
		Targets:  ts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RunAll checks every target concurrently and returns one result per target in
// target order. It never fails: a target that errors or panics occupies its
// slot with an error result.
func (d *Detector) RunAll(ctx context.Context) []domain.CheckResult {
	log := d.Logger.With(zap.String("run_id", uuid.NewString()))
	started := time.Now()
	log.Info("run_started", zap.Int("targets", len(d.Targets)))

	results := make([]domain.CheckResult, len(d.Targets))
	var wg sync.WaitGroup
	for i, target := range d.Targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error("check_panic",
						zap.String("target", target),
						zap.Any("panic", r),
						zap.String("stack", string(debug.Stack())),
					)
					results[i] = domain.ErrorResult(target, fmt.Sprintf("panic: %v", r))
				}
			}()
			results[i] = d.check(ctx, log, target)
		}()
	}
	wg.Wait()

	d.Metrics.MarkRun(d.now())
	log.Info("run_finished",
		zap.Int("targets", len(results)),
		zap.Int("changed", count(results, domain.OutcomeChanged)),
		zap.Int("errors", count(results, domain.OutcomeError)),
		zap.Duration("took", time.Since(started)),
	)
	return results
}

// Check runs the change check for a single target.
func (d *Detector) Check(ctx context.Context, target string) domain.CheckResult {
	return d.check(ctx, d.Logger, target)
}

func (d *Detector) check(ctx context.Context, log *zap.Logger, target string) domain.CheckResult {
	started := time.Now()
	res, err := d.detect(ctx, target)
	if err != nil {
		log.Warn("check_error", zap.String("target", target), zap.Error(err))
		res = domain.ErrorResult(target, err.Error())
	} else {
		log.Info("check_"+string(res.Outcome),
			zap.String("target", target),
			zap.String("fingerprint", res.Fingerprint),
			zap.String("previous_fingerprint", res.PreviousFingerprint),
		)
	}
	d.Metrics.ObserveCheck(string(res.Outcome), time.Since(started))
	return res
}

func (d *Detector) detect(ctx context.Context, target string) (domain.CheckResult, error) {
	raw, err := d.Fetcher.Fetch(ctx, target)
	if err != nil {
		return domain.CheckResult{}, &FetchError{Target: target, Err: err}
	}

	content := normalize.HTML(raw)
	fp := d.Hasher.Fingerprint(content)

	prev, seen, err := d.Store.GetFingerprint(ctx, target)
	if err != nil {
		return domain.CheckResult{}, &StoreError{Target: target, Op: "read", Err: err}
	}

	res := domain.CheckResult{Target: target, Fingerprint: fp, PreviousFingerprint: prev}
	if seen && prev == fp {
		res.Outcome = domain.OutcomeUnchanged
		return res, nil
	}

	now := d.now()
	if err := d.Store.SetState(ctx, target, content, fp, now); err != nil {
		return domain.CheckResult{}, &StoreError{Target: target, Op: "commit", Err: err}
	}
	res.LastUpdated = &now

	if !seen {
		res.Outcome = domain.OutcomeInitialized
		return res, nil
	}

	// The commit above stands whatever the notifier reports.
	res.Outcome = domain.OutcomeChanged
	result := d.Notifier.Notify(ctx, ChangeMessage(target, now))
	d.Metrics.ObserveNotification(result.String())
	return res, nil
}

// ChangeMessage is the alert text sent for a changed target.
func ChangeMessage(target string, at time.Time) string {
	return fmt.Sprintf("🔔 Page changed\nURL: %s\nDetected: %s", target, at.Format(time.RFC3339))
}

func count(results []domain.CheckResult, o domain.Outcome) int {
	n := 0
	for _, r := range results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}
