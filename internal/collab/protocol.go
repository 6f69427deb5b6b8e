package collab

import (
	"encoding/json"

	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/transform"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	View        *ViewAngles `json:"view,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
}

// ViewAngles is a client's camera orbit, shared so others can follow it.
type ViewAngles struct {
	RotX float64 `json:"rotX"`
	RotY float64 `json:"rotY"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// State sync
	TypeStateSync = "state.sync"

	// Transform message types
	TypeTransformSubmit    = "transform.submit"
	TypeTransformKey       = "transform.key"
	TypeTransformReset     = "transform.reset"
	TypeTransformAck       = "transform.ack"
	TypeTransformNack      = "transform.nack"
	TypeTransformBroadcast = "transform.broadcast"
)

// WelcomePayload is sent to a client right after it joins.
type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

// StateSyncPayload carries the full current state of a session.
type StateSyncPayload struct {
	ServerSeq int64                `json:"serverSeq"`
	State     engine.StateSnapshot `json:"state"`
}

// TransformSubmitPayload is the payload for transform.submit messages.
type TransformSubmitPayload struct {
	OpID    string            `json:"opId"`
	Request transform.Request `json:"request"`
}

// TransformKeyPayload is the payload for transform.key messages: a raw
// key press mapped through the server's key bindings.
type TransformKeyPayload struct {
	OpID string `json:"opId"`
	Key  string `json:"key"`
}

// TransformResetPayload is the payload for transform.reset messages.
type TransformResetPayload struct {
	OpID string `json:"opId"`
}

// TransformAckPayload is the payload for transform.ack messages.
type TransformAckPayload struct {
	OpID            string `json:"opId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// TransformNackPayload is the payload for transform.nack messages.
type TransformNackPayload struct {
	OpID   string `json:"opId"`
	Reason string `json:"reason"`
}

// TransformBroadcastPayload tells every client in a session that a
// request was applied and what the resulting state is.
type TransformBroadcastPayload struct {
	OpID      string               `json:"opId"`
	UserID    string               `json:"userId"`
	Request   transform.Request    `json:"request"`
	ServerSeq int64                `json:"serverSeq"`
	State     engine.StateSnapshot `json:"state"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}
