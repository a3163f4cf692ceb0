// Package testutil provides common test utilities and helpers for WellbeingBot tests.
package testutil

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/messaging"
	"github.com/BTreeMap/WellbeingBot/internal/models"
	"github.com/BTreeMap/WellbeingBot/internal/store"
)

// DefaultWaitTimeout bounds WaitSent.
const DefaultWaitTimeout = 2 * time.Second

// TextEvent builds an inbound text event as a transport would emit it.
func TextEvent(messageID string, userID int64, text string) models.Event {
	return models.Event{
		Kind:      models.EventText,
		MessageID: messageID,
		Text:      &models.TextMessage{UserID: userID, Text: text},
		Time:      time.Now().Unix(),
	}
}

// CallbackEvent builds an inline button press carrying data.
func CallbackEvent(userID int64, data string) models.Event {
	return models.Event{
		Kind: models.EventCallback,
		Callback: &models.CallbackEvent{
			UserID:     userID,
			CallbackID: "cb-" + data,
			Data:       data,
			MessageRef: models.MessageRef{UserID: userID, MessageID: "m1"},
		},
		Time: time.Now().Unix(),
	}
}

// WaitSent returns the next outbound message from a MockService notifier.
func WaitSent(t *testing.T, ch <-chan messaging.SentMessage) messaging.SentMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(DefaultWaitTimeout):
		t.Fatal("timed out waiting for a reply")
		return messaging.SentMessage{}
	}
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes the {status,message,result} envelope, validates
// the status field and returns the raw result.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) json.RawMessage {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
	var response struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	if response.Status != expectedStatus {
		t.Errorf("expected status '%s', got '%s' (%s)", expectedStatus, response.Status, response.Message)
	}
	return response.Result
}

// SeedUser registers userID and adds one open task per title.
func SeedUser(t *testing.T, st store.Store, userID int64, titles ...string) []int64 {
	t.Helper()
	ctx := context.Background()
	if err := st.EnsureUser(ctx, userID); err != nil {
		t.Fatalf("failed to ensure user %d: %v", userID, err)
	}
	ids := make([]int64, 0, len(titles))
	for _, title := range titles {
		id, err := st.AddTask(ctx, userID, title)
		if err != nil {
			t.Fatalf("failed to add task %q: %v", title, err)
		}
		ids = append(ids, id)
	}
	return ids
}
