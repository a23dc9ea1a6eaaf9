package contact

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HerbHall/moodwatch/internal/auth"
	"github.com/HerbHall/moodwatch/pkg/models"
	"go.uber.org/zap"
)

func do(h *Handler, method, body, userID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" /api/v1/profile"+route.Path, route.Handler)
	}
	r := httptest.NewRequest(method, "/api/v1/profile", bytes.NewBufferString(body))
	if userID != "" {
		r = r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: userID}))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestProfile_PutThenGet(t *testing.T) {
	h := NewHandler(testStore(t), zap.NewNop())

	w := do(h, http.MethodPut, `{"first_name":"Jamie","last_name":"Rivera",
		"emergency_contact":{"name":"Alex","phone":"+15555550100","is_active":true}}`, "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", w.Code, w.Body)
	}

	w = do(h, http.MethodGet, "", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	var u models.User
	if err := json.NewDecoder(w.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.DisplayName() != "Jamie Rivera" || !u.Contact.Usable() {
		t.Errorf("profile = %+v", u)
	}
}

func TestProfile_Errors(t *testing.T) {
	h := NewHandler(testStore(t), zap.NewNop())

	tests := []struct {
		name   string
		method string
		body   string
		user   string
		want   int
	}{
		{name: "unauthenticated", method: http.MethodGet, want: http.StatusUnauthorized},
		{name: "missing profile", method: http.MethodGet, user: "u9", want: http.StatusNotFound},
		{name: "bad body", method: http.MethodPut, body: "{", user: "u1", want: http.StatusBadRequest},
		{name: "active contact without phone", method: http.MethodPut, user: "u1",
			body: `{"emergency_contact":{"name":"Alex","is_active":true}}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(h, tt.method, tt.body, tt.user); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
