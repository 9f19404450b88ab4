package torii

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytebeasts/beastwatch/internal/vitals"
)

// --------------------------------------------------------------------------
// Datasets
// --------------------------------------------------------------------------

// Dataset identifies one of the paginated model connections.
type Dataset string

const (
	DatasetStatuses Dataset = "beast_statuses"
	DatasetOwners   Dataset = "beast_owners"
	DatasetTokens   Dataset = "push_tokens"
)

// FetchError wraps a transport or query failure while draining one dataset.
// A fetch failure yields no partial results and aborts the whole check run.
type FetchError struct {
	Dataset Dataset
	Cause   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Dataset, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// --------------------------------------------------------------------------
// Canonical records
// --------------------------------------------------------------------------

// Ownership maps one beast to the player address that owns it.
type Ownership struct {
	BeastID string
	Player  string
}

// PushToken maps a player address to an FCM device token.
type PushToken struct {
	Player string
	Token  string
}

// --------------------------------------------------------------------------
// Wire format
// --------------------------------------------------------------------------

// beastCheckQuery drains all three model connections with independent
// cursors. Page size is the indexer's maximum; callers just follow
// hasNextPage until the connection is exhausted.
const beastCheckQuery = `
query BeastCheck($statusAfter: String, $beastAfter: String, $tokenAfter: String) {
  tamagotchiBeastStatusModels(first: 100, after: $statusAfter) {
    edges {
      node {
        beast_id
        is_alive
        is_awake
        hunger
        energy
        happiness
        hygiene
        clean_status
        last_timestamp
      }
    }
    pageInfo {
      endCursor
      hasNextPage
    }
  }
  tamagotchiBeastModels(first: 100, after: $beastAfter) {
    edges {
      node {
        beast_id
        player
      }
    }
    pageInfo {
      endCursor
      hasNextPage
    }
  }
  tamagotchiPushTokenModels(first: 100, after: $tokenAfter) {
    edges {
      node {
        player_address
        token
      }
    }
    pageInfo {
      endCursor
      hasNextPage
    }
  }
}`

type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// statusRaw is a beast status node as Torii serializes it. Numeric felt
// fields may arrive as JSON numbers or hex strings depending on indexer
// version; rawInt handles both. is_awake and clean_status are carried by
// the model but feed no notification rule.
type statusRaw struct {
	BeastID       json.RawMessage `json:"beast_id"`
	IsAlive       bool            `json:"is_alive"`
	IsAwake       bool            `json:"is_awake"`
	Hunger        json.RawMessage `json:"hunger"`
	Energy        json.RawMessage `json:"energy"`
	Happiness     json.RawMessage `json:"happiness"`
	Hygiene       json.RawMessage `json:"hygiene"`
	CleanStatus   json.RawMessage `json:"clean_status"`
	LastTimestamp json.RawMessage `json:"last_timestamp"`
}

type ownerRaw struct {
	BeastID json.RawMessage `json:"beast_id"`
	Player  string          `json:"player"`
}

type tokenRaw struct {
	PlayerAddress string `json:"player_address"`
	Token         string `json:"token"`
}

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
	PageInfo pageInfo `json:"pageInfo"`
}

type checkData struct {
	Statuses connection[statusRaw] `json:"tamagotchiBeastStatusModels"`
	Owners   connection[ownerRaw]  `json:"tamagotchiBeastModels"`
	Tokens   connection[tokenRaw]  `json:"tamagotchiPushTokenModels"`
}

// --------------------------------------------------------------------------
// Fetchers
// --------------------------------------------------------------------------

// FetchStatuses drains every beast status record, in page order.
func (c *Client) FetchStatuses(ctx context.Context) ([]vitals.Snapshot, error) {
	var out []vitals.Snapshot
	err := c.drain(ctx, DatasetStatuses, "statusAfter", func(d *checkData) (pageInfo, error) {
		for _, edge := range d.Statuses.Edges {
			s, err := normalizeStatus(edge.Node)
			if err != nil {
				return pageInfo{}, err
			}
			out = append(out, s)
		}
		return d.Statuses.PageInfo, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Fetched beast statuses", "count", len(out))
	return out, nil
}

// FetchOwners drains every beast ownership record, in page order.
func (c *Client) FetchOwners(ctx context.Context) ([]Ownership, error) {
	var out []Ownership
	err := c.drain(ctx, DatasetOwners, "beastAfter", func(d *checkData) (pageInfo, error) {
		for _, edge := range d.Owners.Edges {
			id, err := rawString(edge.Node.BeastID)
			if err != nil {
				return pageInfo{}, fmt.Errorf("beast_id: %w", err)
			}
			out = append(out, Ownership{BeastID: id, Player: edge.Node.Player})
		}
		return d.Owners.PageInfo, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Fetched beast owners", "count", len(out))
	return out, nil
}

// FetchTokens drains every push token record, in page order.
func (c *Client) FetchTokens(ctx context.Context) ([]PushToken, error) {
	var out []PushToken
	err := c.drain(ctx, DatasetTokens, "tokenAfter", func(d *checkData) (pageInfo, error) {
		for _, edge := range d.Tokens.Edges {
			out = append(out, PushToken{Player: edge.Node.PlayerAddress, Token: edge.Node.Token})
		}
		return d.Tokens.PageInfo, nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("Fetched push tokens", "count", len(out))
	return out, nil
}

// drain pages one dataset to exhaustion. collect appends a page's records
// and returns that dataset's pageInfo. Any error aborts with no partial
// results surfaced to the caller.
func (c *Client) drain(ctx context.Context, ds Dataset, cursorVar string, collect func(*checkData) (pageInfo, error)) error {
	variables := map[string]any{
		"statusAfter": nil,
		"beastAfter":  nil,
		"tokenAfter":  nil,
	}

	for {
		var data checkData
		if err := c.query(ctx, beastCheckQuery, variables, &data); err != nil {
			return &FetchError{Dataset: ds, Cause: err}
		}

		info, err := collect(&data)
		if err != nil {
			return &FetchError{Dataset: ds, Cause: err}
		}

		if !info.HasNextPage {
			return nil
		}
		variables[cursorVar] = info.EndCursor
	}
}

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

func normalizeStatus(raw statusRaw) (vitals.Snapshot, error) {
	id, err := rawString(raw.BeastID)
	if err != nil {
		return vitals.Snapshot{}, fmt.Errorf("beast_id: %w", err)
	}
	hunger, err := rawInt(raw.Hunger)
	if err != nil {
		return vitals.Snapshot{}, fmt.Errorf("hunger: %w", err)
	}
	energy, err := rawInt(raw.Energy)
	if err != nil {
		return vitals.Snapshot{}, fmt.Errorf("energy: %w", err)
	}
	happiness, err := rawInt(raw.Happiness)
	if err != nil {
		return vitals.Snapshot{}, fmt.Errorf("happiness: %w", err)
	}
	hygiene, err := rawInt(raw.Hygiene)
	if err != nil {
		return vitals.Snapshot{}, fmt.Errorf("hygiene: %w", err)
	}
	ts, err := rawInt(raw.LastTimestamp)
	if err != nil {
		return vitals.Snapshot{}, fmt.Errorf("last_timestamp: %w", err)
	}

	s := vitals.Snapshot{
		BeastID:       id,
		Hunger:        int(hunger),
		Energy:        int(energy),
		Happiness:     int(happiness),
		Hygiene:       int(hygiene),
		IsAlive:       raw.IsAlive,
		LastTimestamp: ts,
	}
	return s.Clamp(), nil
}

// rawInt parses a numeric field that may be a JSON number, a decimal
// string, or a 0x-prefixed hex string.
func rawInt(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing value")
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unparseable value %s", truncate(raw, 40))
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseInt(s[2:], 16, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}

// rawString normalizes an identifier field that may be a JSON string or a
// bare number. IDs are joined by exact match, so the textual form is kept.
func rawString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("missing value")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("unparseable value %s", truncate(raw, 40))
	}
	return n.String(), nil
}
