package collab

import (
	"log/slog"
	"sync"

	"github.com/maheswari8074/3d-transformations/internal/engine"
)

// PresenceManager tracks who is in a session and how each of them is
// currently looking at the object.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

// Join records userID with the default camera orbit.
func (pm *PresenceManager) Join(userID, displayName string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[userID] = &PresencePayload{
		DisplayName: displayName,
		View:        &ViewAngles{RotX: engine.DefaultViewRotX, RotY: engine.DefaultViewRotY},
	}
}

// Update merges p into the stored presence and returns the merged copy.
// A nil View keeps the previous one.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) PresencePayload {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	cur, ok := pm.presences[userID]
	if !ok {
		cur = &PresencePayload{}
		pm.presences[userID] = cur
	}
	if p.View != nil {
		v := *p.View
		cur.View = &v
	}
	if p.DisplayName != "" {
		cur.DisplayName = p.DisplayName
	}
	return *cur
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		cp := *v
		result[k] = &cp
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}
