package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/internal/sentiment"
	"github.com/HerbHall/moodwatch/pkg/models"
	"go.uber.org/zap"
)

type fakeBot struct {
	resp   *sentiment.ChatResponse
	err    error
	last   sentiment.ChatRequest
	onChat func()
}

func (f *fakeBot) Chat(_ context.Context, req sentiment.ChatRequest) (*sentiment.ChatResponse, error) {
	f.last = req
	if f.onChat != nil {
		f.onChat()
	}
	return f.resp, f.err
}

type turn struct {
	userID  string
	flagged bool
	reading *models.MoodReading
}

type recordingTrigger struct {
	turns []turn
}

func (r *recordingTrigger) OnChatTurn(_ context.Context, userID string, flagged bool, reading *models.MoodReading) {
	r.turns = append(r.turns, turn{userID: userID, flagged: flagged, reading: reading})
}

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: userID}))
}

func serve(h *Handler, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" /api/v1/"+h.RoutePrefix()+route.Path, route.Handler)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func postMessage(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", bytes.NewBufferString(body))
}

func TestHandleSend(t *testing.T) {
	s := testStore(t)
	bot := &fakeBot{resp: &sentiment.ChatResponse{
		Success:            true,
		Response:           "I'm here with you.",
		MoodAnalysis:       &models.MoodReading{Score: 2, Sentiment: "very negative"},
		Suggestions:        []string{"Call 988"},
		EmergencyTriggered: true,
	}}
	trigger := &recordingTrigger{}
	h := NewHandler(s, bot, trigger, zap.NewNop())

	w := serve(h, authed(postMessage(`{"message": "  I want it all to stop  "}`), "u1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp SendResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserMessage.Message != "I want it all to stop" || resp.BotMessage.Message != "I'm here with you." {
		t.Errorf("response = %+v", resp)
	}
	if resp.MoodAnalysis == nil || resp.MoodAnalysis.Sentiment != "very negative" {
		t.Errorf("mood analysis = %+v", resp.MoodAnalysis)
	}
	if bot.last.UserID != "u1" || bot.last.Message != "I want it all to stop" {
		t.Errorf("bot request = %+v", bot.last)
	}

	if len(trigger.turns) != 1 || !trigger.turns[0].flagged || trigger.turns[0].reading.Score != 2 {
		t.Errorf("trigger turns = %+v", trigger.turns)
	}

	stored, err := s.List(context.Background(), "u1", DefaultRoom, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 2 || !stored[0].IsBot || stored[0].BotResponse == nil || !stored[0].BotResponse.EmergencyTriggered {
		t.Errorf("stored = %+v", stored)
	}
}

func TestHandleSend_OversizedBody(t *testing.T) {
	trigger := &recordingTrigger{}
	h := NewHandler(testStore(t), &fakeBot{}, trigger, zap.NewNop())

	body := `{"message": "` + strings.Repeat("a", 70<<10) + `"}`
	w := serve(h, authed(postMessage(body), "u1"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if len(trigger.turns) != 0 {
		t.Errorf("trigger turns = %d, want 0", len(trigger.turns))
	}
}

type ctxTrigger struct {
	called bool
	err    error
}

func (c *ctxTrigger) OnChatTurn(ctx context.Context, _ string, _ bool, _ *models.MoodReading) {
	c.called = true
	c.err = ctx.Err()
}

func TestHandleSend_AlertOutlivesRequest(t *testing.T) {
	bot := &fakeBot{resp: &sentiment.ChatResponse{Response: "ok", EmergencyTriggered: true}}
	trigger := &ctxTrigger{}
	h := NewHandler(testStore(t), bot, trigger, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := authed(postMessage(`{"message": "help"}`).WithContext(ctx), "u1")
	bot.onChat = cancel

	w := serve(h, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if !trigger.called {
		t.Fatal("trigger not called")
	}
	if trigger.err != nil {
		t.Errorf("trigger context = %v, want live", trigger.err)
	}
}

func TestHandleSend_SendsPriorMessagesAsHistory(t *testing.T) {
	s := testStore(t)
	ts := base
	s.now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
	bot := &fakeBot{resp: &sentiment.ChatResponse{Success: true, Response: "ok"}}
	h := NewHandler(s, bot, nil, zap.NewNop())

	for _, text := range []string{"first", "second"} {
		w := serve(h, authed(postMessage(`{"message": "`+text+`"}`), "u1"))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}
	if len(bot.last.History) != 1 || bot.last.History[0].Message != "first" {
		t.Errorf("history = %+v", bot.last.History)
	}
}

func TestHandleSend_BotFailureUsesFallback(t *testing.T) {
	s := testStore(t)
	trigger := &recordingTrigger{}
	h := NewHandler(s, &fakeBot{err: errors.New("ai down")}, trigger, zap.NewNop())

	w := serve(h, authed(postMessage(`{"message": "hello"}`), "u1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp SendResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BotMessage.Message != fallbackReply {
		t.Errorf("bot message = %q", resp.BotMessage.Message)
	}
	if resp.Suggestions == nil {
		t.Error("suggestions should be an empty list, not null")
	}
	if len(trigger.turns) != 0 {
		t.Errorf("trigger called without analysis: %+v", trigger.turns)
	}
}

func TestHandleSend_Rejects(t *testing.T) {
	h := NewHandler(testStore(t), nil, nil, zap.NewNop())
	long := bytes.Repeat([]byte("a"), maxMessageLength+1)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{name: "unauthenticated", req: postMessage(`{"message": "hi"}`), status: http.StatusUnauthorized},
		{name: "bad json", req: authed(postMessage(`{`), "u1"), status: http.StatusBadRequest},
		{name: "blank message", req: authed(postMessage(`{"message": "   "}`), "u1"), status: http.StatusBadRequest},
		{name: "too long", req: authed(postMessage(`{"message": "`+string(long)+`"}`), "u1"), status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(h, tt.req); w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestHandleHistory(t *testing.T) {
	s := testStore(t)
	h := NewHandler(s, nil, nil, zap.NewNop())
	if w := serve(h, authed(postMessage(`{"message": "hello"}`), "u1")); w.Code != http.StatusOK {
		t.Fatalf("send status = %d", w.Code)
	}

	r := authed(httptest.NewRequest(http.MethodGet, "/api/v1/chat/messages?limit=1", http.NoBody), "u1")
	w := serve(h, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 1 || !resp.Messages[0].IsBot {
		t.Errorf("messages = %+v", resp.Messages)
	}
}
