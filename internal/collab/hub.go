package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheswari8074/3d-transformations/internal/document"
	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/transform"
	"github.com/maheswari8074/3d-transformations/internal/typeid"
)

// SnapshotLoader returns the persisted snapshot of a session. Returning
// ErrNoSnapshot starts the session from the identity.
type SnapshotLoader func(sessionID string) (*document.Snapshot, error)

// SnapshotSaver persists the snapshot of a session.
type SnapshotSaver func(sessionID string, snap *document.Snapshot) error

var (
	ErrNoSnapshot    = errors.New("no snapshot")
	ErrSessionClosed = errors.New("session closed")
	ErrHubStopped    = errors.New("hub stopped")
)

type Room struct {
	sessionID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	state     *SessionState
	saveMu    sync.Mutex // held while a snapshot is being written
}

func NewRoom(sessionID string, state *SessionState) *Room {
	return &Room{
		sessionID: sessionID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		state:     state,
	}
}

// HubOptions configures a Hub.
type HubOptions struct {
	Fixture      transform.Fixture
	Keys         engine.KeyMap
	SaveInterval time.Duration
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room    // sessionID -> room
	closed     map[string]struct{} // deleted sessions
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	loader SnapshotLoader
	saver  SnapshotSaver
	opts   HubOptions
}

func NewHub(loader SnapshotLoader, saver SnapshotSaver, opts HubOptions) *Hub {
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = 30 * time.Second
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		closed:     make(map[string]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		loader:     loader,
		saver:      saver,
		opts:       opts,
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	ticker := time.NewTicker(h.opts.SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.SaveAll()
		case <-h.stop:
			h.SaveAll()
			return
		}
	}
}

// Stop saves every dirty session and stops Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Register loads the client's session and hands the client to Run. The
// load happens on the caller's goroutine so a slow database never stalls
// Run.
func (h *Hub) Register(client *Client) error {
	if _, err := h.room(client.SessionID); err != nil {
		return err
	}
	select {
	case h.register <- client:
		return nil
	case <-h.stop:
		return ErrHubStopped
	}
}

// room returns the room for sessionID, loading its state on first use.
func (h *Hub) room(sessionID string) (*Room, error) {
	h.mu.RLock()
	room, ok := h.rooms[sessionID]
	_, closed := h.closed[sessionID]
	h.mu.RUnlock()
	if closed {
		return nil, ErrSessionClosed
	}
	if ok {
		return room, nil
	}

	state := NewSessionState(h.opts.Fixture, h.opts.Keys)
	if h.loader != nil {
		snap, err := h.loader(sessionID)
		switch {
		case errors.Is(err, ErrNoSnapshot):
		case err != nil:
			return nil, fmt.Errorf("load session %s: %w", sessionID, err)
		default:
			if err := state.Restore(snap); err != nil {
				return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
			}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, closed := h.closed[sessionID]; closed {
		return nil, ErrSessionClosed
	}
	// Another goroutine may have loaded it meanwhile.
	if existing, ok := h.rooms[sessionID]; ok {
		return existing, nil
	}
	room = NewRoom(sessionID, state)
	h.rooms[sessionID] = room
	return room, nil
}

// withRoom runs fn on the registered room of sessionID while holding the
// read lock, so the room cannot be evicted between lookup and fn. If the
// room is evicted after loading, it is loaded again.
func (h *Hub) withRoom(sessionID string, fn func(*Room) error) error {
	for {
		room, err := h.room(sessionID)
		if err != nil {
			return err
		}
		h.mu.RLock()
		if h.rooms[sessionID] == room {
			err = fn(room)
			h.mu.RUnlock()
			return err
		}
		h.mu.RUnlock()
	}
}

// State returns the live state of sessionID, loading it if needed.
func (h *Hub) State(sessionID string) (*SessionState, error) {
	room, err := h.room(sessionID)
	if err != nil {
		return nil, err
	}
	return room.state, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if ok {
		room.clients[client.ClientID] = client
	}
	h.mu.Unlock()
	if !ok {
		// Evicted since Register loaded it; load again off the Run goroutine.
		go func() {
			if err := h.Register(client); err != nil {
				h.rejectClient(client, err)
			}
		}()
		return
	}
	room.presence.Join(client.UserID, client.DisplayName)

	if msg, err := newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, UserID: client.UserID}); err == nil {
		client.Send(msg)
	}

	// Send current state and presence to the new client
	seq, snap := room.state.Snapshot()
	if msg, err := newMessage(TypeStateSync, StateSyncPayload{ServerSeq: seq, State: snap}); err == nil {
		client.Send(msg)
	}
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg, _ := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.SessionID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "session", client.SessionID)
}

func (h *Hub) rejectClient(client *Client, err error) {
	slog.Error("open session", "error", err, "session", client.SessionID)
	client.Send(errorMessage("session unavailable"))
	client.closeSend()
	client.Close("session unavailable")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
		h.evictIfIdle(room)
		slog.Info("client left", "user", client.UserID, "session", client.SessionID)
		return
	}

	// Broadcast leave to remaining clients
	leaveMsg, _ := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcastToRoom(client.SessionID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "session", client.SessionID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeTransformSubmit:
		var p TransformSubmitPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sender.Send(errorMessage("invalid transform payload"))
			return
		}
		h.handleTransform(sender, p.OpID, func(ss *SessionState) (transform.Request, int64, engine.StateSnapshot, error) {
			seq, snap, err := ss.Apply(p.Request)
			return p.Request, seq, snap, err
		})
	case TypeTransformKey:
		var p TransformKeyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			sender.Send(errorMessage("invalid key payload"))
			return
		}
		h.handleTransform(sender, p.OpID, func(ss *SessionState) (transform.Request, int64, engine.StateSnapshot, error) {
			return ss.ApplyKey(p.Key)
		})
	case TypeTransformReset:
		var p TransformResetPayload
		_ = json.Unmarshal(msg.Payload, &p)
		h.handleTransform(sender, p.OpID, func(ss *SessionState) (transform.Request, int64, engine.StateSnapshot, error) {
			req := transform.ResetRequest()
			seq, snap, err := ss.Apply(req)
			return req, seq, snap, err
		})
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

type applyFunc func(*SessionState) (transform.Request, int64, engine.StateSnapshot, error)

func (h *Hub) handleTransform(sender *Client, opID string, apply applyFunc) {
	var (
		req      transform.Request
		seq      int64
		snap     engine.StateSnapshot
		applyErr error
	)
	err := h.withRoom(sender.SessionID, func(room *Room) error {
		req, seq, snap, applyErr = apply(room.state)
		return nil
	})
	if err != nil {
		sender.Send(errorMessage("session unavailable"))
		return
	}
	if err := applyErr; err != nil {
		nack, _ := newMessage(TypeTransformNack, TransformNackPayload{OpID: opID, Reason: err.Error()})
		sender.Send(nack)
		return
	}

	ack, _ := newMessage(TypeTransformAck, TransformAckPayload{
		OpID:            opID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(ack)

	slog.Info(req.Describe(), "user", sender.UserID, "session", sender.SessionID, "seq", seq)
	h.broadcastTransform(sender.SessionID, sender.UserID, opID, req, seq, snap)
}

// Submit applies req to sessionID on behalf of userID and broadcasts the
// result to every connected client. It is the entry point for non-websocket
// callers.
func (h *Hub) Submit(sessionID, userID string, req transform.Request) (int64, engine.StateSnapshot, error) {
	return h.SubmitAll(sessionID, userID, []transform.Request{req})
}

// SubmitAll applies reqs in order as one all-or-nothing batch.
func (h *Hub) SubmitAll(sessionID, userID string, reqs []transform.Request) (int64, engine.StateSnapshot, error) {
	var (
		seq  int64
		snap engine.StateSnapshot
	)
	err := h.withRoom(sessionID, func(room *Room) error {
		var err error
		seq, snap, err = room.state.ApplyAll(reqs)
		return err
	})
	if err != nil {
		return 0, engine.StateSnapshot{}, err
	}
	for _, req := range reqs {
		slog.Info(req.Describe(), "user", userID, "session", sessionID)
	}
	if len(reqs) > 0 {
		h.broadcastTransform(sessionID, userID, typeid.NewOpID(), reqs[len(reqs)-1], seq, snap)
	}
	return seq, snap, nil
}

func (h *Hub) broadcastTransform(sessionID, userID, opID string, req transform.Request, seq int64, snap engine.StateSnapshot) {
	msg, err := newMessage(TypeTransformBroadcast, TransformBroadcastPayload{
		OpID:      opID,
		UserID:    userID,
		Request:   req,
		ServerSeq: seq,
		State:     snap,
	})
	if err != nil {
		slog.Error("marshal broadcast", "error", err)
		return
	}
	msg.UserID = userID
	msg.Seq = seq
	h.broadcastToRoom(sessionID, msg, "")
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.SessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	merged := room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outMsg, err := newMessage(TypePresenceUpdate, merged)
	if err != nil {
		return
	}
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.SessionID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(sessionID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// SaveAll persists every dirty session.
func (h *Hub) SaveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.saveRoom(r)
		h.evictIfIdle(r)
	}
}

// evictIfIdle drops r from memory once it has no clients and nothing left
// to save. Writers apply under the read lock, so a clean room seen here
// under the write lock has no pending change.
func (h *Hub) evictIfIdle(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.sessionID] != r || len(r.clients) > 0 {
		return
	}
	// A write still in flight elsewhere must land before a reload reads it.
	if !r.saveMu.TryLock() {
		return
	}
	defer r.saveMu.Unlock()
	if r.state.Dirty() {
		return
	}
	delete(h.rooms, r.sessionID)
}

// Close drops the live state of a deleted session and disconnects its
// clients. The session cannot be opened again.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	h.closed[sessionID] = struct{}{}
	room, ok := h.rooms[sessionID]
	delete(h.rooms, sessionID)
	var clients []*Client
	if ok {
		for _, c := range room.clients {
			clients = append(clients, c)
		}
		room.clients = make(map[string]*Client)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Send(errorMessage("session deleted"))
		c.closeSend()
	}
	if ok {
		slog.Info("session closed", "session", sessionID, "clients", len(clients))
	}
}

func (h *Hub) saveRoom(r *Room) {
	if h.saver == nil {
		return
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	snap, ok := r.state.takeSnapshot(r.sessionID)
	if !ok {
		return
	}
	if err := h.saver(r.sessionID, snap); err != nil {
		r.state.markDirty()
		slog.Error("save session", "error", err, "session", r.sessionID)
		return
	}
	slog.Debug("session saved", "session", r.sessionID, "version", snap.Version)
}

func errorMessage(text string) *Message {
	msg, _ := newMessage(TypeError, ErrorPayload{Message: text})
	return msg
}
