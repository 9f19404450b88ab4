// Package reconcile joins the three fetched datasets into notifiable
// subjects: one per beast status record that resolves to both an owner and
// a deliverable push token.
package reconcile

import (
	"log/slog"

	"github.com/bytebeasts/beastwatch/internal/torii"
	"github.com/bytebeasts/beastwatch/internal/vitals"
)

// Subject is a beast fully resolved to its owner and push destination.
// It lives for one check run only.
type Subject struct {
	Snapshot vitals.Snapshot
	Owner    string
	Token    string
}

// Result carries the joined subjects plus counts of records that could not
// be resolved. Unresolved records are skipped, never fatal.
type Result struct {
	Subjects     []Subject
	MissingOwner int
	MissingToken int
}

// Build joins statuses against ownership and token records by exact key.
// Output order follows the input status order so runs are deterministic.
//
// When the source yields several tokens for one player, the last record
// observed wins. The upstream indexer emits token updates append-style, so
// the last one is the most recently registered device.
func Build(statuses []vitals.Snapshot, owners []torii.Ownership, tokens []torii.PushToken, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	ownerByBeast := make(map[string]string, len(owners))
	for _, o := range owners {
		ownerByBeast[o.BeastID] = o.Player
	}
	tokenByPlayer := make(map[string]string, len(tokens))
	for _, t := range tokens {
		tokenByPlayer[t.Player] = t.Token
	}

	var res Result
	for _, s := range statuses {
		owner, ok := ownerByBeast[s.BeastID]
		if !ok {
			logger.Warn("No owner for beast, skipping", "beast_id", s.BeastID)
			res.MissingOwner++
			continue
		}
		token, ok := tokenByPlayer[owner]
		if !ok {
			logger.Warn("No push token for owner, skipping",
				"beast_id", s.BeastID, "owner", owner)
			res.MissingToken++
			continue
		}
		res.Subjects = append(res.Subjects, Subject{Snapshot: s, Owner: owner, Token: token})
	}
	return res
}
