// Package cooldown gates notifications per owner so a beast in continuous
// distress does not flood its player. The gate is evaluated once per
// subject: either all of a run's alerts for an owner go out, or none do.
//
// The last-notified timestamp is the only state that outlives a check run.
// Overlapping runs may both pass Admit before either calls Record; the
// worst case is one duplicate notification.
package cooldown

import (
	"context"
	"time"
)

// DefaultWindow is the minimum gap between notifications to one owner.
const DefaultWindow = time.Hour

// Store persists last-notified timestamps (epoch millis) keyed by owner.
type Store interface {
	// Get returns the owner's last-notified timestamp. found=false means
	// the owner has never been notified.
	Get(ctx context.Context, owner string) (ts int64, found bool, err error)
	// Set records the owner's last-notified timestamp.
	Set(ctx context.Context, owner string, ts int64) error
}

// Gate decides whether an owner may be notified right now.
type Gate struct {
	store    Store
	windowMs int64
}

// NewGate creates a gate over the given store and cooldown window.
func NewGate(store Store, window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{store: store, windowMs: window.Milliseconds()}
}

// Admit reports whether the owner's cooldown window has elapsed. An owner
// with no record counts as never notified. On store error the caller should
// skip the subject for this run rather than notify.
func (g *Gate) Admit(ctx context.Context, owner string, nowMs int64) (bool, error) {
	last, found, err := g.store.Get(ctx, owner)
	if err != nil {
		return false, err
	}
	if !found {
		last = 0
	}
	return nowMs-last >= g.windowMs, nil
}

// Record stamps the owner as notified at nowMs. Called once per subject
// after its alerts have been dispatched.
func (g *Gate) Record(ctx context.Context, owner string, nowMs int64) error {
	return g.store.Set(ctx, owner, nowMs)
}
