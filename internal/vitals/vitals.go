// Package vitals models beast care metrics and the time-based decay that
// reconstructs a beast's current state from its last on-chain snapshot.
//
// The indexer only records state when a player interacts with their beast,
// so between interactions the current vitals must be derived from elapsed
// wall-clock time.
package vitals

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// MaxVital is the upper bound for every care metric.
	MaxVital = 100

	// One care point of neglect accrues every 3 minutes, one energy point
	// every 6 minutes. Mirrors the on-chain simulation.
	carePointSeconds   = 180
	energyPointSeconds = 360

	// Energy decays faster once it drops below this value.
	lowEnergyCutoff = 50

	// A beast unattended long enough to accrue a full bar of energy loss
	// is considered fully lapsed, whatever its last recorded state.
	lapsedEnergyPoints = MaxVital
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Snapshot is one beast's recorded state at LastTimestamp (epoch millis).
// Vitals are always within [0, MaxVital].
type Snapshot struct {
	BeastID       string
	Hunger        int
	Energy        int
	Happiness     int
	Hygiene       int
	IsAlive       bool
	LastTimestamp int64
}

// Clamp returns a copy with every vital forced into [0, MaxVital].
// Source data is untrusted; all snapshots pass through here on ingest.
func (s Snapshot) Clamp() Snapshot {
	s.Hunger = clampVital(s.Hunger)
	s.Energy = clampVital(s.Energy)
	s.Happiness = clampVital(s.Happiness)
	s.Hygiene = clampVital(s.Hygiene)
	return s
}

func clampVital(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVital {
		return MaxVital
	}
	return v
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
