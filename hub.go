package main

import (
	"context"
	"math/rand/v2"
	"time"
)

// Hub serializes every room mutation onto a single goroutine. Each
// inbound message and each fired deletion timer becomes one action on
// the queue, and an action runs to completion before the next one is
// picked up, so a handler never observes a half-mutated room and the
// registry needs no locks.
type Hub struct {
	cfg   *Config
	reg   *Registry
	rng   *rand.Rand
	grace time.Duration

	actions chan func()
	clients map[*Client]bool
	timers  map[string]*time.Timer // room id → pending reap, at most one per room
}

func NewHub(cfg *Config, reg *Registry, rng *rand.Rand) *Hub {
	return &Hub{
		cfg:     cfg,
		reg:     reg,
		rng:     rng,
		grace:   cfg.roomGrace,
		actions: make(chan func(), 256),
		clients: make(map[*Client]bool),
		timers:  make(map[string]*time.Timer),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case fn := <-h.actions:
			fn()
		}
	}
}

func (h *Hub) enqueue(fn func()) {
	h.actions <- fn
}

// Attach registers a freshly upgraded websocket connection.
func (h *Hub) Attach(c *Client) {
	h.enqueue(func() {
		h.clients[c] = true
	})
}

// Detach handles a closed connection: a server-detected disconnect.
// The room is located by transport handle, since the close event
// itself carries no room id.
func (h *Hub) Detach(c *Client) {
	h.enqueue(func() {
		if _, ok := h.clients[c]; !ok {
			return
		}
		delete(h.clients, c)
		close(c.send)

		for _, room := range h.reg.Rooms() {
			for _, p := range room.players {
				// A stale socket may close after the same session
				// already reconnected on a fresh one; only the
				// current handle counts.
				if p.client == c {
					room.markDisconnected(p)
					h.broadcastRoom(room)
				}
			}
		}

		// One close event can't reliably name its room, so liveness
		// is re-evaluated everywhere.
		for _, room := range h.reg.Rooms() {
			h.evaluateReap(room)
		}
		h.broadcastListing()
	})
}

// Dispatch routes one inbound message onto the event loop.
func (h *Hub) Dispatch(c *Client, msg ClientMessage) {
	h.enqueue(func() {
		h.handle(c, msg)
	})
}

func (h *Hub) handle(c *Client, msg ClientMessage) {
	if msg.Type == "hello" {
		h.handleHello(c, msg.SessionID)
		return
	}

	// Every other action needs an established session.
	if c.token == "" {
		return
	}

	switch msg.Type {
	case "create_room":
		h.handleCreateRoom(c, msg)
	case "join_room":
		h.handleJoin(c, msg)
	case "leave_room":
		h.handleLeave(c, msg)
	case "delete_room":
		h.handleDeleteRoom(c, msg)
	case "set_referee":
		h.handleSetReferee(c, msg)
	case "set_mafia_count":
		h.handleSetMafiaCount(c, msg)
	case "start_game":
		h.handleStartGame(c, msg)
	case "reset_game":
		h.handleResetGame(c, msg)
	case "change_name":
		h.handleRename(c, msg)
	default:
		// ignore unknown types
	}
}

func (h *Hub) handleHello(c *Client, sessionID string) {
	if sessionID == "" {
		sessionID = newSessionToken()
	}
	c.token = sessionID
	h.send(c, HelloAckMessage{Type: "hello_ack", SessionID: sessionID})
}

func (h *Hub) handleCreateRoom(c *Client, msg ClientMessage) {
	roomName := sanitizeName(msg.RoomName)
	if roomName == "" {
		roomName = "Mafia"
	}
	hostName := sanitizeName(msg.Name)
	if hostName == "" {
		hostName = "Host"
	}

	h.detachFromCurrentRoom(c.token)

	room := h.reg.Create(roomName, c.token, hostName)
	room.Player(c.token).client = c
	logf(h.cfg, "ROOMS: %q created room %s (%q)", hostName, room.ID, roomName)

	h.send(c, JoinedRoomMessage{Type: "joined_room", RoomID: room.ID})
	h.broadcastRoom(room)
	h.broadcastListing()
}

func (h *Hub) handleJoin(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok {
		h.send(c, ErrorMessage{Type: "error", Message: "Room not found"})
		return
	}

	if prev, ok := h.reg.RoomFor(c.token); ok && prev != room {
		h.detachFromCurrentRoom(c.token)
	}

	p := room.Player(c.token)
	if p != nil {
		// Reconnect: rebind the transport handle. Name, host flag and
		// any mid-round role are preserved.
		p.Connected = true
		p.client = c
		logf(h.cfg, "ROOMS: %q reconnected to room %s", p.Name, room.ID)
	} else {
		name := sanitizeName(msg.Name)
		if name == "" {
			name = "Player"
		}
		p = &Player{
			Token:     c.token,
			Name:      name,
			Connected: true,
			client:    c,
		}
		room.addPlayer(p)
		logf(h.cfg, "ROOMS: %q joined room %s", p.Name, room.ID)
	}
	h.reg.Bind(c.token, room.ID)

	h.cancelReap(room.ID)

	h.send(c, JoinedRoomMessage{Type: "joined_room", RoomID: room.ID})

	// Mid-round replay: the rejoining player gets back exactly the
	// private payload they are entitled to, and nothing more.
	if room.Started {
		view := room.Project(c.token)
		switch {
		case view.Overview != nil:
			h.send(c, RolesOverviewMessage{Type: "roles_overview", Players: view.Overview})
		case view.YourRole != RoleNone:
			h.send(c, YourRoleMessage{Type: "your_role", Role: view.YourRole})
		}
	}

	h.broadcastRoom(room)
	h.broadcastListing()
}

func (h *Hub) handleLeave(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok {
		return
	}
	p := room.Player(c.token)
	if p == nil {
		return
	}

	room.markDisconnected(p)
	h.evaluateReap(room)
	h.broadcastRoom(room)
	h.broadcastListing()
}

func (h *Hub) handleDeleteRoom(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok || room.HostToken != c.token {
		// Unauthorized deletes stay silent so probing clients learn
		// nothing about which rooms or hosts exist.
		return
	}

	h.cancelReap(room.ID)
	for _, p := range room.Players() {
		if p.Connected && p.client != nil {
			h.send(p.client, RoomDeletedMessage{Type: "room_deleted", RoomID: room.ID})
		}
	}
	h.reg.Delete(room.ID)
	logf(h.cfg, "ROOMS: Room %s deleted by host", room.ID)
	h.broadcastListing()
}

func (h *Hub) handleSetReferee(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok || room.HostToken != c.token {
		return
	}

	room.setReferee(msg.RefereeID)

	// A referee designated mid-round couldn't otherwise see the
	// overview until their next reconnect.
	if room.Started && room.RefereeToken != "" {
		ref := room.Player(room.RefereeToken)
		if ref.Connected && ref.client != nil {
			h.send(ref.client, RolesOverviewMessage{Type: "roles_overview", Players: room.overview()})
		}
	}

	h.broadcastRoom(room)
}

func (h *Hub) handleSetMafiaCount(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok || room.HostToken != c.token || msg.MafiaCount == nil {
		return
	}

	room.MafiaCount = clampMafiaCount(*msg.MafiaCount)
	h.broadcastRoom(room)
	h.broadcastListing()
}

func (h *Hub) handleStartGame(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok || room.HostToken != c.token {
		return
	}

	if err := room.startRound(h.rng); err != nil {
		h.send(c, ErrorMessage{Type: "error", Message: err.Error()})
		return
	}
	logf(h.cfg, "GAMES: Room %s started with %d players, %d mafia",
		room.ID, len(room.activePool()), room.MafiaCount)

	// Immediate fan-out: overview to the referee, each player their
	// own role. Disconnected players replay on their next join.
	for _, p := range room.Players() {
		if !p.Connected || p.client == nil {
			continue
		}
		view := room.Project(p.Token)
		switch {
		case view.Overview != nil:
			h.send(p.client, RolesOverviewMessage{Type: "roles_overview", Players: view.Overview})
		case view.YourRole != RoleNone:
			h.send(p.client, YourRoleMessage{Type: "your_role", Role: view.YourRole})
		}
	}

	h.broadcastRoom(room)
	h.broadcastListing()
}

func (h *Hub) handleResetGame(c *Client, msg ClientMessage) {
	room, ok := h.reg.Get(msg.RoomID)
	if !ok || room.HostToken != c.token {
		return
	}

	room.resetRound()
	logf(h.cfg, "GAMES: Room %s reset to lobby", room.ID)
	h.broadcastRoom(room)
	h.broadcastListing()
}

func (h *Hub) handleRename(c *Client, msg ClientMessage) {
	name := sanitizeName(msg.NewName)
	if name == "" {
		return
	}

	var room *Room
	if msg.RoomID != "" {
		room, _ = h.reg.Get(msg.RoomID)
	} else {
		room, _ = h.reg.RoomFor(c.token)
	}
	if room == nil {
		return
	}
	p := room.Player(c.token)
	if p == nil {
		return
	}

	p.Name = name
	h.broadcastRoom(room)
}

// detachFromCurrentRoom marks a session disconnected in whatever room
// it is currently live in. A session holds at most one live
// membership; the old record survives for a later reconnect until the
// room is reaped.
func (h *Hub) detachFromCurrentRoom(token string) {
	room, ok := h.reg.RoomFor(token)
	if !ok {
		return
	}
	p := room.Player(token)
	if p == nil || !p.Connected {
		return
	}
	room.markDisconnected(p)
	h.evaluateReap(room)
	h.broadcastRoom(room)
}

// evaluateReap reconciles a room's pending deletion timer with its
// current liveness. Idempotent: re-evaluating with no liveness change
// is a no-op.
func (h *Hub) evaluateReap(room *Room) {
	if room.ConnectedCount() == 0 {
		if _, pending := h.timers[room.ID]; pending {
			return
		}
		id := room.ID
		var t *time.Timer
		t = time.AfterFunc(h.grace, func() {
			h.enqueue(func() {
				h.reap(id, t)
			})
		})
		h.timers[id] = t
		logf(h.cfg, "ROOMS: Room %s empty, reap scheduled in %s", id, h.grace)
		return
	}

	h.cancelReap(room.ID)
}

// cancelReap is a no-op for rooms with no pending timer, and for
// timers that already fired (their queued reap re-checks the record).
func (h *Hub) cancelReap(roomID string) {
	if t, ok := h.timers[roomID]; ok {
		t.Stop()
		delete(h.timers, roomID)
	}
}

// reap removes a room whose grace period expired. The timer fires off
// the event loop, so by the time this action runs, a reconnect may
// already have cancelled it; both the timer record and the room's
// liveness are re-checked here.
func (h *Hub) reap(id string, t *time.Timer) {
	current, ok := h.timers[id]
	if !ok || current != t {
		return
	}
	delete(h.timers, id)

	room, ok := h.reg.Get(id)
	if !ok || room.ConnectedCount() > 0 {
		return
	}

	h.reg.Delete(id)
	logf(h.cfg, "ROOMS: Room %s reaped (no clients)", id)
	h.broadcastListing()
}

// Listing serves the public room projection to callers outside the
// event loop (the HTTP listing endpoint) via a synchronous round trip.
func (h *Hub) Listing() []RoomListing {
	reply := make(chan []RoomListing, 1)
	h.enqueue(func() {
		reply <- h.reg.List()
	})
	return <-reply
}

// broadcastRoom pushes each member their own projection of the room.
// The snapshot is role-free for every viewer; private payloads never
// travel this path.
func (h *Hub) broadcastRoom(room *Room) {
	for _, p := range room.Players() {
		if !p.Connected || p.client == nil {
			continue
		}
		h.send(p.client, RoomStateMessage{Type: "room_state", Room: room.Project(p.Token).State})
	}
}

func (h *Hub) broadcastListing() {
	for c := range h.clients {
		h.send(c, RoomsUpdatedMessage{Type: "rooms_updated"})
	}
}

// send queues a message for one client, dropping it if the client's
// buffer is full. A slow client misses an update and catches up on the
// next broadcast; last write wins.
func (h *Hub) send(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		logf(h.cfg, "ROOMS: Dropped message to slow client")
	}
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, c)
	}
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
	}
}
