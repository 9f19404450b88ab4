package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytebeasts/beastwatch/internal/vitals"
)

func TestEvaluateDeadBeastSingleAlert(t *testing.T) {
	s := vitals.Snapshot{BeastID: "0x1", IsAlive: false, Hunger: 0, Energy: 0}

	alerts := Evaluate(s, 90)

	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Title, "Needs Help")
	assert.Contains(t, alerts[0].Body, "Revive")
}

func TestEvaluateHealthyBeastNoAlerts(t *testing.T) {
	s := vitals.Snapshot{
		BeastID: "0x1", IsAlive: true,
		Hunger: 90, Energy: 95, Happiness: 100, Hygiene: 90,
	}
	assert.Empty(t, Evaluate(s, 90))
}

func TestEvaluateAtThresholdNoAlert(t *testing.T) {
	s := vitals.Snapshot{
		BeastID: "0x1", IsAlive: true,
		Hunger: 50, Energy: 50, Happiness: 50, Hygiene: 50,
	}
	assert.Empty(t, Evaluate(s, 50), "threshold is strict: value == threshold does not alert")
}

func TestEvaluateLowHungerCarriesValue(t *testing.T) {
	s := vitals.Snapshot{
		BeastID: "0x1", IsAlive: true,
		Hunger: 40, Energy: 80, Happiness: 80, Hygiene: 80,
	}

	alerts := Evaluate(s, 50)

	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Title, "Hungry")
	assert.Contains(t, alerts[0].Body, "(40/100)")
}

func TestEvaluateMultipleLowVitalsFixedOrder(t *testing.T) {
	s := vitals.Snapshot{
		BeastID: "0x1", IsAlive: true,
		Hunger: 10, Energy: 20, Happiness: 95, Hygiene: 30,
	}

	alerts := Evaluate(s, 90)

	require.Len(t, alerts, 3)
	assert.Contains(t, alerts[0].Title, "Hungry")
	assert.Contains(t, alerts[1].Title, "Tired")
	assert.Contains(t, alerts[2].Title, "Bath")
}
