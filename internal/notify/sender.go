// Package notify delivers push alerts to player devices via Firebase Cloud
// Messaging and records delivery outcomes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const fcmEndpoint = "https://fcm.googleapis.com/fcm/send"

// Sender delivers one alert to one device token.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// SendError is a typed FCM delivery failure. InvalidToken marks tokens that
// should be dropped from future runs (the device unregistered).
type SendError struct {
	Code         string
	InvalidToken bool
}

func (e *SendError) Error() string {
	return fmt.Sprintf("fcm send failed: %s", e.Code)
}

// FCMSender sends push notifications through the FCM HTTP API.
// Nil-safe: when not configured, Send is a logged no-op.
type FCMSender struct {
	httpClient *http.Client
	endpoint   string
	serverKey  string
	logger     *slog.Logger
}

// NewFCMSender creates an FCM sender from a server key.
// Returns nil if serverKey is empty (push delivery disabled).
func NewFCMSender(serverKey string, logger *slog.Logger) *FCMSender {
	if serverKey == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FCMSender{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   fcmEndpoint,
		serverKey:  serverKey,
		logger:     logger,
	}
}

type fcmRequest struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send delivers one notification to one device token.
func (s *FCMSender) Send(ctx context.Context, token, title, body string) error {
	if s == nil {
		slog.Default().Info("FCM disabled, dropping notification", "title", title)
		return nil
	}

	payload, err := json.Marshal(fcmRequest{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
	})
	if err != nil {
		return fmt.Errorf("encode fcm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read fcm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm returned %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var result fcmResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("decode fcm response: %w", err)
	}
	if result.Failure > 0 && len(result.Results) > 0 {
		code := result.Results[0].Error
		return &SendError{
			Code:         code,
			InvalidToken: code == "NotRegistered" || code == "InvalidRegistration",
		}
	}
	return nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
