package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HerbHall/moodwatch/pkg/models"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL + "/", Timeout: time.Second}, zap.NewNop())
}

func TestChat(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"response":"I'm here for you.",
			"moodAnalysis":{"score":2,"sentiment":"very negative","emotion":"despair","confidence":0.9},
			"suggestions":["breathe"],"emergencyTriggered":true}`))
	})

	resp, err := c.Chat(context.Background(), ChatRequest{
		Message: "I can't go on",
		UserID:  "u1",
		History: []HistoryMessage{{Message: "hi", IsBot: false}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Message != "I can't go on" || got.UserID != "u1" || len(got.History) != 1 {
		t.Errorf("request = %+v", got)
	}
	if !resp.EmergencyTriggered || resp.MoodAnalysis == nil || resp.MoodAnalysis.Score != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.MoodAnalysis.Sentiment != "very negative" {
		t.Errorf("sentiment = %q", resp.MoodAnalysis.Sentiment)
	}
}

func TestChat_Failures(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{name: "server error", h: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":"boom"}`))
		}},
		{name: "success false", h: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":false,"error":"Message is required"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.h)
			_, err := c.Chat(context.Background(), ChatRequest{Message: "x"})
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("err = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestChat_Unreachable(t *testing.T) {
	c := New(Config{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, zap.NewNop())
	if _, err := c.Chat(context.Background(), ChatRequest{Message: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestAnalyzeMood(t *testing.T) {
	var got analyzeRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-mood" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"analysis":{"sentiment":"negative","confidence":0.7,"keywords":["work"],"suggestions":["take a walk"]}}`))
	})

	a, err := c.AnalyzeMood(context.Background(), "rough day at work", 4, models.MoodLow)
	if err != nil {
		t.Fatalf("AnalyzeMood: %v", err)
	}
	if got.Text != "rough day at work" || got.Score != 4 || got.Mood != "low" {
		t.Errorf("request = %+v", got)
	}
	if a.Sentiment != "negative" || len(a.Suggestions) != 1 {
		t.Errorf("analysis = %+v", a)
	}
}

func TestAnalyzeMood_EmptyAnalysis(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	if _, err := c.AnalyzeMood(context.Background(), "", 5, models.MoodModerate); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
