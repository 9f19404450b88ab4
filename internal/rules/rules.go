// Package rules evaluates a beast's computed vitals against the care
// threshold and produces the push alerts to send. Stateless and
// deterministic: the cooldown gate, not this package, decides whether
// anything actually goes out.
package rules

import (
	"fmt"

	"github.com/bytebeasts/beastwatch/internal/vitals"
)

// Alert is one push notification payload, title and body already filled.
type Alert struct {
	Title string
	Body  string
}

// Evaluate returns the alerts for one beast, in fixed order.
//
// A dead beast yields exactly one revive alert and nothing else. An alive
// beast yields one alert per vital strictly below threshold, in the order
// hunger, energy, happiness, hygiene.
func Evaluate(s vitals.Snapshot, threshold int) []Alert {
	if !s.IsAlive {
		return []Alert{{
			Title: "💔 Your Beast Needs Help!",
			Body:  "Oh no! Your beast has fainted. Revive it now! 🏥",
		}}
	}

	var alerts []Alert
	if s.Hunger < threshold {
		alerts = append(alerts, Alert{
			Title: "🍽️ Your Beast is Hungry!",
			Body:  fmt.Sprintf("Your beast's hunger is low (%d/100). Feed it now! 🥐", s.Hunger),
		})
	}
	if s.Energy < threshold {
		alerts = append(alerts, Alert{
			Title: "⚡ Your Beast is Tired!",
			Body:  fmt.Sprintf("Your beast's energy is low (%d/100). Let it rest! 💤", s.Energy),
		})
	}
	if s.Happiness < threshold {
		alerts = append(alerts, Alert{
			Title: "😢 Your Beast is Sad!",
			Body:  fmt.Sprintf("Your beast's happiness is low (%d/100). Play with it! 🎉", s.Happiness),
		})
	}
	if s.Hygiene < threshold {
		alerts = append(alerts, Alert{
			Title: "🛁 Your Beast Needs a Bath!",
			Body:  fmt.Sprintf("Your beast's hygiene is low (%d/100). Clean it up! 🧼", s.Hygiene),
		})
	}
	return alerts
}
