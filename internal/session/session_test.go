package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/maheswari8074/3d-transformations/internal/auth"
	"github.com/maheswari8074/3d-transformations/internal/collab"
	"github.com/maheswari8074/3d-transformations/internal/db"
	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/script"
	"github.com/maheswari8074/3d-transformations/internal/transform"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]db.SessionRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]db.SessionRow)}
}

func (f *fakeStore) CreateSession(_ context.Context, id, name, hash string) (db.SessionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := db.SessionRow{ID: id, Name: name, PassphraseHash: hash, CreatedAt: time.Now()}
	f.sessions[id] = row
	return row, nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (db.SessionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.sessions[id]
	if !ok {
		return db.SessionRow{}, db.ErrNoRows
	}
	return row, nil
}

func (f *fakeStore) ListSessions(context.Context) ([]db.SessionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.SessionRow
	for _, row := range f.sessions {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return db.ErrNoRows
	}
	delete(f.sessions, id)
	return nil
}

type testServer struct {
	router  *mux.Router
	authSvc *auth.Service
	svc     *Service
	hub     *collab.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hub := collab.NewHub(nil, nil, collab.HubOptions{
		Fixture: transform.Cube(transform.DefaultHalfSize),
		Keys:    engine.DefaultKeyMap(),
	})
	authSvc := auth.NewService("test-secret")
	svc := NewService(newFakeStore(), hub, authSvc, script.NewRunner(0))
	h := NewHandler(svc)

	r := mux.NewRouter()
	r.HandleFunc("/api/sessions", h.Create).Methods("POST")
	r.HandleFunc("/api/sessions", h.List).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}", h.Get).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}/state", h.State).Methods("GET")

	p := r.PathPrefix("/api/sessions/{sessionId}").Subrouter()
	p.Use(authSvc.AuthMiddleware)
	p.HandleFunc("/transforms", h.Transforms).Methods("POST")
	p.HandleFunc("/reset", h.Reset).Methods("POST")
	p.HandleFunc("/script", h.Script).Methods("POST")
	p.HandleFunc("", h.Delete).Methods("DELETE")

	return &testServer{router: r, authSvc: authSvc, svc: svc, hub: hub}
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession(t *testing.T) (string, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/sessions", "", `{"name":"cube"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body.String())
	}
	var sess struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &sess)
	token, err := ts.authSvc.IssueToken("user_test", sess.ID, "Tester")
	if err != nil {
		t.Fatal(err)
	}
	return sess.ID, token
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResult {
	t.Helper()
	var res StateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v: %s", err, rec.Body.String())
	}
	return res
}

func pointAt(res StateResult, i int) transform.Vector4 {
	return transform.Vector4(res.State.Points[i])
}

func TestCreateAndGet(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(t, http.MethodPost, "/api/sessions", "", `{"name":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name: status = %d", rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/api/sessions", "", `{"name":"locked","passphrase":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var sess struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		HasPassphrase bool   `json:"hasPassphrase"`
	}
	json.Unmarshal(rec.Body.Bytes(), &sess)
	if !strings.HasPrefix(sess.ID, "sess_") || sess.Name != "locked" || !sess.HasPassphrase {
		t.Fatalf("session = %+v", sess)
	}

	hash, err := ts.svc.PassphraseHash(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := ts.authSvc.CheckPassphrase(hash, "pw"); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}

	if rec := ts.do(t, http.MethodGet, "/api/sessions/"+sess.ID, "", ""); rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/sessions/sess_missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/sessions", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
}

func TestInitialStateIsFixture(t *testing.T) {
	ts := newTestServer(t)
	id, _ := ts.createSession(t)

	rec := ts.do(t, http.MethodGet, "/api/sessions/"+id+"/state", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	res := decodeState(t, rec)
	fix := transform.Cube(transform.DefaultHalfSize)
	for i := range fix {
		if pointAt(res, i) != fix[i] {
			t.Fatalf("point %d = %v, want %v", i, pointAt(res, i), fix[i])
		}
	}
}

func TestTransformsComposeInOrder(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.createSession(t)

	body := `{"requests":[{"kind":"translate","x":2},{"kind":"scale","x":2,"y":2,"z":2}]}`
	rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/transforms", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeState(t, rec)

	m, ok := transform.FromSlice(res.State.Model)
	if !ok {
		t.Fatal("bad model")
	}
	got := transform.Apply(m, transform.Point(1, 1, 1))
	if want := transform.Point(6, 2, 2); !got.ApproxEqual(want, 1e-12) {
		t.Fatalf("(1,1,1) -> %v, want %v", got, want)
	}
	if len(res.Descriptions) != 2 || res.Descriptions[1] != "Scaled by 2 uniformly." {
		t.Fatalf("descriptions = %q", res.Descriptions)
	}
	if res.State.Applied != 2 {
		t.Fatalf("applied = %d", res.State.Applied)
	}
}

func TestTransformsRejectInvalid(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.createSession(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{"requests":[]}`},
		{"bad kind", `{"requests":[{"kind":"twist"}]}`},
		{"bad axis", `{"requests":[{"kind":"reflect","axis":"w"}]}`},
		{"bad shear", `{"requests":[{"kind":"shear","shear":9,"amount":1}]}`},
		{"partial batch", `{"requests":[{"kind":"translate","x":1},{"kind":"shear","shear":0}]}`},
		{"malformed", `{"requests":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/transforms", token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	res := decodeState(t, ts.do(t, http.MethodGet, "/api/sessions/"+id+"/state", "", ""))
	if res.State.Applied != 0 {
		t.Fatalf("rejected requests changed state: applied = %d", res.State.Applied)
	}
}

func TestTransformsRequireToken(t *testing.T) {
	ts := newTestServer(t)
	id, _ := ts.createSession(t)
	_, otherToken := ts.createSession(t)

	body := `{"requests":[{"kind":"rotate_z","angle":90}]}`
	if rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/transforms", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/transforms", otherToken, body); rec.Code != http.StatusForbidden {
		t.Fatalf("other session token: status = %d", rec.Code)
	}
}

func TestScriptAndReset(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.createSession(t)

	rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/script", token, `{"source":"(shear 1 0.5)"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	m, _ := transform.FromSlice(decodeState(t, rec).State.Model)
	if got, want := transform.Apply(m, transform.Point(0, 2, 0)), transform.Point(1, 2, 0); !got.ApproxEqual(want, 1e-12) {
		t.Fatalf("(0,2,0) -> %v, want %v", got, want)
	}

	if rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/script", token, `{"source":"(reflect \"q\")"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad script: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/reset", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status = %d", rec.Code)
	}
	res := decodeState(t, rec)
	m, _ = transform.FromSlice(res.State.Model)
	if !m.IsIdentity() || res.State.Applied != 0 {
		t.Fatalf("after reset model = %v, applied = %d", m, res.State.Applied)
	}
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.createSession(t)

	body := `{"requests":[{"kind":"rotate_x","angle":45}]}`
	if rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/transforms", token, body); rec.Code != http.StatusOK {
		t.Fatalf("transforms: status = %d", rec.Code)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/sessions/"+id, token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/sessions/"+id, "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("after delete: status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/transforms", token, body); rec.Code != http.StatusNotFound {
		t.Fatalf("transforms after delete: status = %d", rec.Code)
	}

	// The live state is gone too, so a still-valid token or open socket
	// cannot keep composing on the deleted session.
	if _, err := ts.hub.State(id); !errors.Is(err, collab.ErrSessionClosed) {
		t.Fatalf("live state after delete: err = %v", err)
	}
	if _, _, err := ts.hub.Submit(id, "user_test", transform.RotateX(45)); !errors.Is(err, collab.ErrSessionClosed) {
		t.Fatalf("submit after delete: err = %v", err)
	}
}
