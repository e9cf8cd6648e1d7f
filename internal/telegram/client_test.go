package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a Client at a fake Bot API server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("test-token")
	client.baseURL = srv.URL + "/bot"
	return client
}

func TestSendMessage(t *testing.T) {
	var got SendMessageRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(SendMessageResponse{OK: true, Result: &Result{MessageID: 42}})
	})

	resp, err := client.SendMessage(context.Background(), "12345", "hello", "Markdown")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if resp.Result.MessageID != 42 {
		t.Errorf("expected message id 42, got %d", resp.Result.MessageID)
	}
	if got.ChatID != "12345" || got.Text != "hello" || got.ParseMode != "Markdown" {
		t.Errorf("unexpected request payload: %+v", got)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SendMessageResponse{OK: false, Description: "chat not found", ErrorCode: 400})
	})

	_, err := client.SendMessage(context.Background(), "999", "hello", "")
	if err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestGetUpdates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "7" {
			t.Errorf("expected offset 7, got %s", got)
		}
		_ = json.NewEncoder(w).Encode(GetUpdatesResponse{
			OK: true,
			Result: []*Update{
				{UpdateID: 7, Message: &Message{Text: "tasks", Chat: &Chat{ID: 12345}}},
			},
		})
	})

	updates, err := client.GetUpdates(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(updates) != 1 || updates[0].Message.Text != "tasks" {
		t.Errorf("unexpected updates: %+v", updates)
	}
}
