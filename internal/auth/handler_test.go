package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

type fakeSessions map[string]string

func (f fakeSessions) PassphraseHash(_ context.Context, id string) (string, error) {
	hash, ok := f[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return hash, nil
}

func newTestRouter(t *testing.T) (*mux.Router, *Service) {
	t.Helper()
	svc := NewService("test-secret")
	hash, err := svc.HashPassphrase("pw")
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc, fakeSessions{"sess_open": "", "sess_locked": hash})

	r := mux.NewRouter()
	r.HandleFunc("/api/sessions/{sessionId}/join", h.Join).Methods("POST")
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(svc.AuthMiddleware)
	protected.HandleFunc("/sessions/{sessionId}/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserIDFromContext(r.Context())))
	}).Methods("GET")
	return r, svc
}

func TestJoin(t *testing.T) {
	r, svc := newTestRouter(t)

	tests := []struct {
		name       string
		session    string
		body       string
		wantStatus int
	}{
		{"open session", "sess_open", `{"displayName":"Ada"}`, http.StatusOK},
		{"correct passphrase", "sess_locked", `{"displayName":"Ada","passphrase":"pw"}`, http.StatusOK},
		{"wrong passphrase", "sess_locked", `{"displayName":"Ada","passphrase":"nope"}`, http.StatusUnauthorized},
		{"missing name", "sess_open", `{"displayName":"  "}`, http.StatusBadRequest},
		{"bad body", "sess_open", `{`, http.StatusBadRequest},
		{"unknown session", "sess_missing", `{"displayName":"Ada"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+tt.session+"/join", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var res JoinResult
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			claims, err := svc.ValidateToken(res.Token)
			if err != nil {
				t.Fatal(err)
			}
			if claims.SessionID != tt.session || claims.UserID() != res.User.ID {
				t.Fatalf("claims = %+v, result = %+v", claims, res)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	r, svc := newTestRouter(t)
	token, _ := svc.IssueToken("user_1", "sess_open", "Ada")

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"valid", "/api/sessions/sess_open/whoami", "Bearer " + token, http.StatusOK},
		{"missing header", "/api/sessions/sess_open/whoami", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/sessions/sess_open/whoami", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "/api/sessions/sess_open/whoami", "Bearer junk", http.StatusUnauthorized},
		{"other session", "/api/sessions/sess_locked/whoami", "Bearer " + token, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != "user_1" {
				t.Fatalf("body = %q", rec.Body.String())
			}
		})
	}
}
