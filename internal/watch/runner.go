package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bytebeasts/beastwatch/internal/cooldown"
	"github.com/bytebeasts/beastwatch/internal/notify"
	"github.com/bytebeasts/beastwatch/internal/reconcile"
	"github.com/bytebeasts/beastwatch/internal/rules"
	"github.com/bytebeasts/beastwatch/internal/torii"
	"github.com/bytebeasts/beastwatch/internal/vitals"
)

// RunnerConfig holds the tunables for a check run.
type RunnerConfig struct {
	// VitalThreshold triggers an alert for any vital strictly below it.
	VitalThreshold int
	// Workers bounds per-subject concurrency within one run.
	Workers int
	// TestMode bypasses the pipeline and sends one diagnostic push to
	// TestFCMToken. Operational smoke testing only.
	TestMode     bool
	TestFCMToken string
}

// Runner executes check runs. All collaborators are injected; the runner
// holds no process-wide state, so overlapping runs only contend on the
// durable cooldown store.
type Runner struct {
	fetcher Fetcher
	gate    *cooldown.Gate
	sender  notify.Sender
	audit   *notify.AuditLog
	cfg     RunnerConfig
	logger  *slog.Logger

	now func() time.Time
}

// NewRunner wires a runner from its collaborators.
func NewRunner(fetcher Fetcher, gate *cooldown.Gate, sender notify.Sender, audit *notify.AuditLog, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{
		fetcher: fetcher,
		gate:    gate,
		sender:  sender,
		audit:   audit,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one check run. Only a dataset fetch failure returns an
// error; per-subject problems are contained and counted in the Result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.New(),
		StartedAt: r.now(),
		TestMode:  r.cfg.TestMode,
	}
	defer func() {
		result.Duration = r.now().Sub(result.StartedAt)
	}()

	if r.cfg.TestMode {
		return result, r.runTestMode(ctx, result)
	}

	statuses, owners, tokens, err := r.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	result.BeastsFetched = len(statuses)

	rec := reconcile.Build(statuses, owners, tokens, r.logger)
	result.SubjectsResolved = len(rec.Subjects)
	result.Unresolved = rec.MissingOwner + rec.MissingToken

	r.processSubjects(ctx, rec.Subjects, result)

	r.logger.Info("Check run complete", "run_id", result.RunID, "summary", result.Summary())
	return result, nil
}

// runTestMode sends one fixed diagnostic notification and skips the pipeline.
func (r *Runner) runTestMode(ctx context.Context, result *Result) error {
	err := r.sender.Send(ctx, r.cfg.TestFCMToken, "🔔 Test Notification", "Check your beast.")
	if err != nil {
		result.SendFailures++
		result.addErrorf("test notification: %v", err)
		return err
	}
	result.AlertsSent++
	r.logger.Info("Test notification sent", "run_id", result.RunID)
	return nil
}

// fetchAll drains the three datasets concurrently. The first fetch error
// wins and aborts the run; there is no ordering dependency between them.
func (r *Runner) fetchAll(ctx context.Context) ([]vitals.Snapshot, []torii.Ownership, []torii.PushToken, error) {
	var (
		statuses []vitals.Snapshot
		owners   []torii.Ownership
		tokens   []torii.PushToken

		statusErr, ownerErr, tokenErr error
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		statuses, statusErr = r.fetcher.FetchStatuses(ctx)
	}()
	go func() {
		defer wg.Done()
		owners, ownerErr = r.fetcher.FetchOwners(ctx)
	}()
	go func() {
		defer wg.Done()
		tokens, tokenErr = r.fetcher.FetchTokens(ctx)
	}()
	wg.Wait()

	for _, err := range []error{statusErr, ownerErr, tokenErr} {
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return statuses, owners, tokens, nil
}

// subjectOutcome aggregates one subject's processing for the run result.
type subjectOutcome struct {
	alerting     bool
	suppressed   bool
	cooldownErrs int
	sent         int
	failed       int
	errs         []string
}

// processSubjects fans subjects out over a bounded worker pool. Per-owner
// cooldown records are the only shared state, touched once per subject.
func (r *Runner) processSubjects(ctx context.Context, subjects []reconcile.Subject, result *Result) {
	if len(subjects) == 0 {
		return
	}

	workers := r.cfg.Workers
	if workers > len(subjects) {
		workers = len(subjects)
	}

	nowMs := r.now().UnixMilli()

	ch := make(chan reconcile.Subject, len(subjects))
	for _, s := range subjects {
		ch <- s
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for subject := range ch {
				outcome := r.processSubject(ctx, subject, nowMs)

				mu.Lock()
				if outcome.alerting {
					result.SubjectsAlerting++
				}
				if outcome.suppressed {
					result.CooldownSuppressed++
				}
				result.CooldownErrors += outcome.cooldownErrs
				result.AlertsSent += outcome.sent
				result.SendFailures += outcome.failed
				result.Errors = append(result.Errors, outcome.errs...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

// processSubject runs decay, rules, cooldown, and dispatch for one beast.
func (r *Runner) processSubject(ctx context.Context, subject reconcile.Subject, nowMs int64) subjectOutcome {
	var out subjectOutcome

	current, err := vitals.ComputeCurrent(subject.Snapshot, nowMs)
	if errors.Is(err, vitals.ErrTimeOrder) {
		// Indexer clock ahead of ours: treat the snapshot as current
		// rather than dropping the beast from the run.
		r.logger.Warn("Snapshot timestamp in the future, skipping decay",
			"beast_id", subject.Snapshot.BeastID,
			"last_timestamp", subject.Snapshot.LastTimestamp, "now_ms", nowMs)
		current = subject.Snapshot
	}

	alerts := rules.Evaluate(current, r.cfg.VitalThreshold)
	if len(alerts) == 0 {
		return out
	}
	out.alerting = true

	// Gate once per subject: all of this beast's alerts go out together
	// or not at all.
	admitted, err := r.gate.Admit(ctx, subject.Owner, nowMs)
	if err != nil {
		r.logger.Warn("Cooldown read failed, skipping subject",
			"owner", subject.Owner, "beast_id", current.BeastID, "error", err)
		out.cooldownErrs++
		out.errs = append(out.errs, "cooldown read "+subject.Owner+": "+err.Error())
		return out
	}
	if !admitted {
		out.suppressed = true
		return out
	}

	for _, alert := range alerts {
		if err := r.sender.Send(ctx, subject.Token, alert.Title, alert.Body); err != nil {
			r.logger.Warn("Push send failed",
				"owner", subject.Owner, "beast_id", current.BeastID,
				"title", alert.Title, "error", err)
			r.audit.RecordFailed(ctx, subject.Owner, current.BeastID, alert.Title, err.Error())
			out.failed++
			out.errs = append(out.errs, "send "+subject.Owner+": "+err.Error())
			continue
		}
		r.audit.RecordSent(ctx, subject.Owner, current.BeastID, alert.Title)
		out.sent++
	}

	if out.sent > 0 {
		if err := r.gate.Record(ctx, subject.Owner, nowMs); err != nil {
			r.logger.Warn("Cooldown write failed",
				"owner", subject.Owner, "error", err)
			out.cooldownErrs++
			out.errs = append(out.errs, "cooldown write "+subject.Owner+": "+err.Error())
		}
	}
	return out
}
