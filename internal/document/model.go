package document

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/maheswari8074/3d-transformations/internal/transform"
)

var ErrInvalidModel = errors.New("invalid model matrix")

// Session describes one shared transform workspace.
type Session struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HasPassphrase bool   `json:"hasPassphrase"`
	CreatedAt     string `json:"createdAt"`
}

// Snapshot is the persisted form of a session's cumulative model matrix.
// Only the single composed matrix is stored; individual transforms are not.
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	Version   int       `json:"version"`
	Model     []float64 `json:"model"` // 16 values, row-major
	Applied   int       `json:"applied"`
	SavedAt   string    `json:"savedAt"`
}

// NewSnapshot captures m as version of sessionID.
func NewSnapshot(sessionID string, version int, m transform.Matrix4, applied int) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Version:   version,
		Model:     m.ToSlice(),
		Applied:   applied,
		SavedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// NewEmptySnapshot returns version 0 with an identity model.
func NewEmptySnapshot(sessionID string) *Snapshot {
	return NewSnapshot(sessionID, 0, transform.Identity(), 0)
}

// Matrix decodes the stored model, rejecting wrong sizes and non-finite values.
func (s *Snapshot) Matrix() (transform.Matrix4, error) {
	m, ok := transform.FromSlice(s.Model)
	if !ok {
		return transform.Matrix4{}, fmt.Errorf("%w: %d values", ErrInvalidModel, len(s.Model))
	}
	for _, v := range s.Model {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return transform.Matrix4{}, fmt.Errorf("%w: non-finite entry", ErrInvalidModel)
		}
	}
	return m, nil
}

// Restore loads the snapshot into st. The state is reset and the stored
// matrix composed onto the identity, so the usual Compose path keeps the
// points consistent with it.
func (s *Snapshot) Restore(st *transform.State) error {
	m, err := s.Matrix()
	if err != nil {
		return err
	}
	st.Reset()
	if !m.IsIdentity() {
		st.Compose(m)
	}
	return nil
}
