package torii

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTorii serves a fixed set of status pages and records how it was queried.
type fakeTorii struct {
	t        *testing.T
	pages    map[string]string // cursor ("" for first page) -> response body
	requests int
}

func (f *fakeTorii) handler(w http.ResponseWriter, r *http.Request) {
	f.requests++

	var req struct {
		Query     string             `json:"query"`
		Variables map[string]*string `json:"variables"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Contains(f.t, req.Query, "tamagotchiBeastStatusModels")

	cursor := ""
	if after := req.Variables["statusAfter"]; after != nil {
		cursor = *after
	}
	body, ok := f.pages[cursor]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown cursor %q", cursor), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func statusPage(cursor string, hasNext bool, nodes ...string) string {
	edges := ""
	for i, n := range nodes {
		if i > 0 {
			edges += ","
		}
		edges += `{"node":` + n + `}`
	}
	return fmt.Sprintf(`{"data":{
		"tamagotchiBeastStatusModels":{"edges":[%s],"pageInfo":{"endCursor":%q,"hasNextPage":%v}},
		"tamagotchiBeastModels":{"edges":[],"pageInfo":{"endCursor":"","hasNextPage":false}},
		"tamagotchiPushTokenModels":{"edges":[],"pageInfo":{"endCursor":"","hasNextPage":false}}
	}}`, edges, cursor, hasNext)
}

func TestFetchStatusesDrainsAllPages(t *testing.T) {
	fake := &fakeTorii{t: t, pages: map[string]string{
		"": statusPage("cur1", true,
			`{"beast_id":"0x1","is_alive":true,"hunger":40,"energy":80,"happiness":70,"hygiene":60,"last_timestamp":1700000000000}`,
			`{"beast_id":"0x2","is_alive":false,"hunger":0,"energy":0,"happiness":0,"hygiene":0,"last_timestamp":1700000000000}`,
		),
		"cur1": statusPage("cur2", false,
			`{"beast_id":"0x3","is_alive":true,"hunger":"0x5a","energy":"90","happiness":100,"hygiene":100,"last_timestamp":"1700000000000"}`,
		),
	}}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	client := NewClient(srv.URL, 600, nil)
	statuses, err := client.FetchStatuses(context.Background())
	require.NoError(t, err)

	require.Len(t, statuses, 3)
	assert.Equal(t, 2, fake.requests)

	// Page order is preserved.
	assert.Equal(t, "0x1", statuses[0].BeastID)
	assert.Equal(t, "0x2", statuses[1].BeastID)
	assert.Equal(t, "0x3", statuses[2].BeastID)

	assert.Equal(t, 40, statuses[0].Hunger)
	assert.True(t, statuses[0].IsAlive)
	assert.False(t, statuses[1].IsAlive)

	// Hex and decimal string felts normalize to ints.
	assert.Equal(t, 90, statuses[2].Hunger)
	assert.Equal(t, 90, statuses[2].Energy)
	assert.Equal(t, int64(1700000000000), statuses[2].LastTimestamp)
}

func TestFetchStatusesClampsVitals(t *testing.T) {
	fake := &fakeTorii{t: t, pages: map[string]string{
		"": statusPage("", false,
			`{"beast_id":"0x1","is_alive":true,"hunger":250,"energy":-3,"happiness":50,"hygiene":50,"last_timestamp":0}`,
		),
	}}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	client := NewClient(srv.URL, 600, nil)
	statuses, err := client.FetchStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 100, statuses[0].Hunger)
	assert.Equal(t, 0, statuses[0].Energy)
}

func TestFetchAbortsOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 600, nil)
	statuses, err := client.FetchStatuses(context.Background())

	assert.Nil(t, statuses, "no partial results on failure")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, DatasetStatuses, fetchErr.Dataset)
}

func TestFetchAbortsOnGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":null,"errors":[{"message":"model not found"}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 600, nil)
	_, err := client.FetchTokens(context.Background())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, DatasetTokens, fetchErr.Dataset)
	assert.Contains(t, err.Error(), "model not found")
}

func TestFetchOwnersAndTokens(t *testing.T) {
	body := `{"data":{
		"tamagotchiBeastStatusModels":{"edges":[],"pageInfo":{"endCursor":"","hasNextPage":false}},
		"tamagotchiBeastModels":{"edges":[
			{"node":{"beast_id":"0x1","player":"0xaaa"}},
			{"node":{"beast_id":7,"player":"0xbbb"}}
		],"pageInfo":{"endCursor":"","hasNextPage":false}},
		"tamagotchiPushTokenModels":{"edges":[
			{"node":{"player_address":"0xaaa","token":"fcm-token-1"}}
		],"pageInfo":{"endCursor":"","hasNextPage":false}}
	}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 600, nil)

	owners, err := client.FetchOwners(context.Background())
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.Equal(t, Ownership{BeastID: "0x1", Player: "0xaaa"}, owners[0])
	assert.Equal(t, "7", owners[1].BeastID, "numeric ids keep their textual form")

	tokens, err := client.FetchTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, PushToken{Player: "0xaaa", Token: "fcm-token-1"}, tokens[0])
}
