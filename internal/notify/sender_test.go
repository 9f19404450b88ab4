package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSender(endpoint string) *FCMSender {
	return &FCMSender{
		httpClient: &http.Client{Timeout: time.Second},
		endpoint:   endpoint,
		serverKey:  "test-key",
	}
}

func TestFCMSenderSend(t *testing.T) {
	var got fcmRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"success":1,"failure":0,"results":[{}]}`)
	}))
	defer srv.Close()

	err := testSender(srv.URL).Send(context.Background(), "tok-1", "Title", "Body")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.To)
	assert.Equal(t, "Title", got.Notification.Title)
	assert.Equal(t, "Body", got.Notification.Body)
}

func TestFCMSenderInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`)
	}))
	defer srv.Close()

	err := testSender(srv.URL).Send(context.Background(), "stale", "Title", "Body")

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.True(t, sendErr.InvalidToken)
	assert.Equal(t, "NotRegistered", sendErr.Code)
}

func TestFCMSenderTransientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":0,"failure":1,"results":[{"error":"Unavailable"}]}`)
	}))
	defer srv.Close()

	err := testSender(srv.URL).Send(context.Background(), "tok", "Title", "Body")

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.False(t, sendErr.InvalidToken)
}

func TestFCMSenderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := testSender(srv.URL).Send(context.Background(), "tok", "Title", "Body")
	assert.ErrorContains(t, err, "429")
}

func TestNewFCMSenderDisabled(t *testing.T) {
	sender := NewFCMSender("", nil)
	assert.Nil(t, sender)
	// Nil receiver is a safe no-op.
	assert.NoError(t, sender.Send(context.Background(), "tok", "Title", "Body"))
}
