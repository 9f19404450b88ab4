package vitals

import "errors"

// ErrTimeOrder is returned when the reference time predates the snapshot's
// own timestamp (clock skew or bad indexer data). Callers treat the
// snapshot as current rather than aborting.
var ErrTimeOrder = errors.New("vitals: reference time precedes snapshot timestamp")

// ComputeCurrent derives the beast's present vitals from its last recorded
// snapshot and the current time in epoch milliseconds. Pure: the input is
// never mutated and the same inputs always yield the same output.
//
// nowMs must be >= s.LastTimestamp; otherwise the input snapshot is
// returned unchanged along with ErrTimeOrder.
func ComputeCurrent(s Snapshot, nowMs int64) (Snapshot, error) {
	if nowMs < s.LastTimestamp {
		return s, ErrTimeOrder
	}

	elapsedSeconds := (nowMs - s.LastTimestamp) / 1000
	carePoints := int(elapsedSeconds / carePointSeconds)
	energyPoints := int(elapsedSeconds / energyPointSeconds)

	out := s
	out.LastTimestamp = nowMs

	// Fully lapsed: enough elapsed time to drain a complete energy bar.
	// Applies even to beasts already recorded as dead.
	if energyPoints >= lapsedEnergyPoints {
		out.Hunger = 0
		out.Energy = 0
		out.Happiness = 0
		out.Hygiene = 0
		out.IsAlive = false
		return out, nil
	}

	// Dead beasts are frozen at their recorded vitals.
	if !s.IsAlive {
		return out, nil
	}

	careDecrement := 0
	if carePoints != 0 {
		careDecrement = carePoints + 2
	}
	hygieneDecrement := carePoints * 2

	// Low energy accelerates every other metric's decay.
	if s.Energy < lowEnergyCutoff {
		fast := carePoints * 3 / 2
		careDecrement = fast
		hygieneDecrement = fast
	}

	out.Hunger = clampZero(s.Hunger - careDecrement)
	out.Happiness = clampZero(s.Happiness - careDecrement)
	out.Hygiene = clampZero(s.Hygiene - hygieneDecrement)
	out.Energy = clampZero(s.Energy - energyPoints)

	if out.Hunger == 0 && out.Energy == 0 && out.Happiness == 0 && out.Hygiene == 0 {
		out.IsAlive = false
	}
	return out, nil
}
