// Package watch orchestrates one beast check run: drain the three Torii
// datasets, reconcile them into notifiable subjects, simulate decay, apply
// alert rules, gate per-owner cooldowns, and dispatch pushes.
//
// Pipeline: fetch ×3 → reconcile → decay → rules → cooldown → dispatch.
// Runs are triggered on a fixed interval by the scheduler, or manually via
// the API and CLI. Only a fetch failure aborts a run; every other error is
// contained to the subject or alert it concerns.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bytebeasts/beastwatch/internal/torii"
	"github.com/bytebeasts/beastwatch/internal/vitals"
)

// --------------------------------------------------------------------------
// Collaborator contracts
// --------------------------------------------------------------------------

// Fetcher drains the three Torii datasets. *torii.Client implements it.
type Fetcher interface {
	FetchStatuses(ctx context.Context) ([]vitals.Snapshot, error)
	FetchOwners(ctx context.Context) ([]torii.Ownership, error)
	FetchTokens(ctx context.Context) ([]torii.PushToken, error)
}

// --------------------------------------------------------------------------
// Run result
// --------------------------------------------------------------------------

// Result tracks the outcome of one check run.
type Result struct {
	RunID              uuid.UUID     `json:"run_id"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration_ns"`
	TestMode           bool          `json:"test_mode"`
	BeastsFetched      int           `json:"beasts_fetched"`
	SubjectsResolved   int           `json:"subjects_resolved"`
	Unresolved         int           `json:"unresolved"`
	SubjectsAlerting   int           `json:"subjects_alerting"`
	CooldownSuppressed int           `json:"cooldown_suppressed"`
	CooldownErrors     int           `json:"cooldown_errors"`
	AlertsSent         int           `json:"alerts_sent"`
	SendFailures       int           `json:"send_failures"`
	Errors             []string      `json:"errors,omitempty"`
}

// Summary returns a human-readable summary for run logs.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"beasts=%d subjects=%d unresolved=%d alerting=%d suppressed=%d sent=%d send_failures=%d errors=%d dur=%s",
		r.BeastsFetched, r.SubjectsResolved, r.Unresolved, r.SubjectsAlerting,
		r.CooldownSuppressed, r.AlertsSent, r.SendFailures, len(r.Errors),
		r.Duration.Round(time.Millisecond))
}

// addErrorf records a contained per-subject error.
func (r *Result) addErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
