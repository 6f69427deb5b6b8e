package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maheswari8074/3d-transformations/internal/auth"
	"github.com/maheswari8074/3d-transformations/internal/collab"
	"github.com/maheswari8074/3d-transformations/internal/db"
	"github.com/maheswari8074/3d-transformations/internal/document"
	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/transform"
	"github.com/maheswari8074/3d-transformations/internal/typeid"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrNoRequests  = errors.New("no transforms given")
	ErrInvalidName = errors.New("name is required")
)

// Store is the persistence the service needs; *db.Store satisfies it.
type Store interface {
	CreateSession(ctx context.Context, id, name, passphraseHash string) (db.SessionRow, error)
	GetSession(ctx context.Context, id string) (db.SessionRow, error)
	ListSessions(ctx context.Context) ([]db.SessionRow, error)
	DeleteSession(ctx context.Context, id string) error
}

// Live applies transforms to the in-memory state of a session and fans the
// result out to connected clients; *collab.Hub satisfies it.
type Live interface {
	State(sessionID string) (*collab.SessionState, error)
	SubmitAll(sessionID, userID string, reqs []transform.Request) (int64, engine.StateSnapshot, error)
	Close(sessionID string)
}

// ScriptRunner evaluates a transform script into requests.
type ScriptRunner interface {
	Run(ctx context.Context, source string) ([]transform.Request, error)
}

type Service struct {
	store   Store
	live    Live
	auth    *auth.Service
	scripts ScriptRunner
}

func NewService(store Store, live Live, authSvc *auth.Service, scripts ScriptRunner) *Service {
	return &Service{store: store, live: live, auth: authSvc, scripts: scripts}
}

// StateResult is the state of a session after a read or a write.
type StateResult struct {
	SessionID    string               `json:"sessionId"`
	ServerSeq    int64                `json:"serverSeq"`
	State        engine.StateSnapshot `json:"state"`
	Descriptions []string             `json:"descriptions,omitempty"`
}

func (s *Service) Create(ctx context.Context, name, passphrase string) (*document.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	hash, err := s.auth.HashPassphrase(passphrase)
	if err != nil {
		return nil, err
	}

	row, err := s.store.CreateSession(ctx, typeid.NewSessionID(), name, hash)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return rowToSession(row), nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*document.Session, error) {
	if err := typeid.Validate(sessionID, typeid.PrefixSession); err != nil {
		return nil, ErrNotFound
	}
	row, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rowToSession(row), nil
}

func (s *Service) List(ctx context.Context) ([]document.Session, error) {
	rows, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]document.Session, len(rows))
	for i, row := range rows {
		sessions[i] = *rowToSession(row)
	}
	return sessions, nil
}

func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete session: %w", err)
	}
	s.live.Close(sessionID)
	return nil
}

// PassphraseHash implements auth.SessionLookup.
func (s *Service) PassphraseHash(ctx context.Context, sessionID string) (string, error) {
	row, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", auth.ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return row.PassphraseHash, nil
}

// State returns the live state of a session.
func (s *Service) State(ctx context.Context, sessionID string) (*StateResult, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	ss, err := s.live.State(sessionID)
	if errors.Is(err, collab.ErrSessionClosed) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	seq, snap := ss.Snapshot()
	return &StateResult{SessionID: sessionID, ServerSeq: seq, State: snap}, nil
}

// Points returns the current transformed points of a session.
func (s *Service) Points(ctx context.Context, sessionID string) (transform.Fixture, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return transform.Fixture{}, err
	}
	ss, err := s.live.State(sessionID)
	if errors.Is(err, collab.ErrSessionClosed) {
		return transform.Fixture{}, ErrNotFound
	}
	if err != nil {
		return transform.Fixture{}, fmt.Errorf("open session: %w", err)
	}
	return ss.Points(), nil
}

// Apply composes reqs onto the session in order, all or nothing.
func (s *Service) Apply(ctx context.Context, sessionID, userID string, reqs []transform.Request) (*StateResult, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRequests
	}
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	seq, snap, err := s.live.SubmitAll(sessionID, userID, reqs)
	if err != nil {
		return nil, err
	}

	descriptions := make([]string, len(reqs))
	for i, req := range reqs {
		descriptions[i] = req.Describe()
	}
	return &StateResult{SessionID: sessionID, ServerSeq: seq, State: snap, Descriptions: descriptions}, nil
}

func (s *Service) Reset(ctx context.Context, sessionID, userID string) (*StateResult, error) {
	return s.Apply(ctx, sessionID, userID, []transform.Request{transform.ResetRequest()})
}

// RunScript evaluates source and applies the requests it records.
func (s *Service) RunScript(ctx context.Context, sessionID, userID, source string) (*StateResult, error) {
	reqs, err := s.scripts.Run(ctx, source)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, sessionID, userID, reqs)
}

func rowToSession(row db.SessionRow) *document.Session {
	return &document.Session{
		ID:            row.ID,
		Name:          row.Name,
		HasPassphrase: row.PassphraseHash != "",
		CreatedAt:     row.CreatedAt.Format(time.RFC3339),
	}
}
