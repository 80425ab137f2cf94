package main

import (
	"crypto/rand"
)

const (
	roomIDLength = 6

	// Excludes ambiguous characters (0/O, 1/I/L) so ids survive being
	// read out loud across a table.
	roomIDChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// Registry is the authoritative table of active rooms. It is owned by
// the hub goroutine; confinement replaces locking (every action runs
// to completion on that goroutine before the next is processed).
type Registry struct {
	rooms   map[string]*Room
	order   []string          // creation order, preserved by List
	byToken map[string]string // session token → room id (one live room per session)
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		byToken: make(map[string]string),
	}
}

// Create allocates a fresh room with the creator as its sole,
// connected host player.
func (reg *Registry) Create(name, hostToken, hostName string) *Room {
	room := newRoom(reg.newRoomID(), name)
	room.HostToken = hostToken
	room.addPlayer(&Player{
		Token:     hostToken,
		Name:      hostName,
		Connected: true,
		IsHost:    true,
	})
	reg.rooms[room.ID] = room
	reg.order = append(reg.order, room.ID)
	reg.byToken[hostToken] = room.ID
	return room
}

func (reg *Registry) Get(id string) (*Room, bool) {
	room, ok := reg.rooms[id]
	return room, ok
}

// RoomFor resolves the room a session most recently joined.
func (reg *Registry) RoomFor(token string) (*Room, bool) {
	id, ok := reg.byToken[token]
	if !ok {
		return nil, false
	}
	room, ok := reg.rooms[id]
	return room, ok
}

// Bind points a session token at a room for RoomFor lookups.
func (reg *Registry) Bind(token, roomID string) {
	reg.byToken[token] = roomID
}

func (reg *Registry) Delete(id string) {
	room, ok := reg.rooms[id]
	if !ok {
		return
	}
	delete(reg.rooms, id)
	for i, existing := range reg.order {
		if existing == id {
			reg.order = append(reg.order[:i], reg.order[i+1:]...)
			break
		}
	}
	for token := range room.players {
		if reg.byToken[token] == id {
			delete(reg.byToken, token)
		}
	}
}

func (reg *Registry) Len() int {
	return len(reg.rooms)
}

// Rooms returns every room in creation order.
func (reg *Registry) Rooms() []*Room {
	out := make([]*Room, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.rooms[id])
	}
	return out
}

// List projects the public room listing in creation order.
func (reg *Registry) List() []RoomListing {
	out := make([]RoomListing, 0, len(reg.order))
	for _, id := range reg.order {
		out = append(out, reg.rooms[id].listing())
	}
	return out
}

// newRoomID generates a crypto-random room id and ensures it doesn't
// collide with existing rooms.
func (reg *Registry) newRoomID() string {
	for {
		buf := make([]byte, roomIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomIDLength)
		for i := range out {
			out[i] = roomIDChars[int(buf[i])%len(roomIDChars)]
		}
		id := string(out)

		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}
