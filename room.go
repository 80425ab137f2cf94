package main

import (
	"time"
)

type Role string

const (
	RoleNone      Role = ""
	RoleMafia     Role = "mafia"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleCitizen   Role = "citizen"
)

// Player is one session's membership in a room. The record survives
// disconnects; only Connected and the transport handle change.
type Player struct {
	Token     string
	Name      string
	Connected bool
	IsHost    bool
	IsReferee bool
	Role      Role

	client *Client // valid only while Connected
}

type Room struct {
	ID           string
	Name         string
	HostToken    string
	RefereeToken string // "" when no referee is designated
	MafiaCount   int
	Started      bool
	StartedAt    time.Time

	players map[string]*Player
	order   []string // join order, for stable iteration
}

func newRoom(id, name string) *Room {
	return &Room{
		ID:      id,
		Name:    name,
		players: make(map[string]*Player),
	}
}

func (r *Room) Player(token string) *Player {
	return r.players[token]
}

// Players returns the room's players in join order.
func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, token := range r.order {
		out = append(out, r.players[token])
	}
	return out
}

func (r *Room) addPlayer(p *Player) {
	r.players[p.Token] = p
	r.order = append(r.order, p.Token)
}

func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// markDisconnected records a player dropping off. Identity, host flag
// and any assigned role survive; referee status requires a live
// connection and is cleared.
func (r *Room) markDisconnected(p *Player) {
	p.Connected = false
	p.client = nil
	if p.IsReferee {
		p.IsReferee = false
		r.RefereeToken = ""
	}
}

// setReferee clears any existing referee and designates the player
// with the given token, if present. A missing target leaves the room
// with no referee.
func (r *Room) setReferee(token string) {
	for _, p := range r.players {
		p.IsReferee = false
	}
	r.RefereeToken = ""

	target := r.players[token]
	if target == nil {
		return
	}
	target.IsReferee = true
	r.RefereeToken = target.Token
	if r.Started {
		// Referees observe; they never hold a role.
		target.Role = RoleNone
	}
}

// View is everything one viewer may see of a room: the shared
// snapshot, plus whichever private payload (own role or full
// overview) that viewer is entitled to.
type View struct {
	State    RoomSnapshot
	YourRole Role        // RoleNone unless the viewer holds a role
	Overview []RoleEntry // non-nil only for the referee while started
}

// Project is the single visibility gate between room state and any
// observer. The shared snapshot never carries roles, so nothing a
// non-referee receives can reveal another player's role.
func (r *Room) Project(viewerToken string) View {
	snapshot := RoomSnapshot{
		ID:         r.ID,
		Name:       r.Name,
		HostID:     r.HostToken,
		RefereeID:  r.RefereeToken,
		MafiaCount: r.MafiaCount,
		Started:    r.Started,
		Players:    make([]PlayerSnapshot, 0, len(r.order)),
	}
	for _, p := range r.Players() {
		snapshot.Players = append(snapshot.Players, PlayerSnapshot{
			ID:        p.Token,
			Name:      p.Name,
			Connected: p.Connected,
			IsHost:    p.IsHost,
			IsReferee: p.IsReferee,
		})
	}

	view := View{State: snapshot}

	viewer := r.players[viewerToken]
	if viewer == nil || !r.Started {
		return view
	}

	if viewer.IsReferee {
		view.Overview = r.overview()
	} else {
		view.YourRole = viewer.Role
	}

	return view
}

// overview lists every role-holding player, Mafia first, then Doctor,
// Detective, and Citizens. Ordering is purely presentational.
func (r *Room) overview() []RoleEntry {
	entries := make([]RoleEntry, 0, len(r.order))
	for _, role := range []Role{RoleMafia, RoleDoctor, RoleDetective, RoleCitizen} {
		for _, p := range r.Players() {
			if p.Role == role {
				entries = append(entries, RoleEntry{
					ID:   p.Token,
					Name: p.Name,
					Role: p.Role,
				})
			}
		}
	}
	return entries
}

func (r *Room) listing() RoomListing {
	return RoomListing{
		ID:         r.ID,
		Name:       r.Name,
		HostID:     r.HostToken,
		Players:    r.ConnectedCount(),
		Started:    r.Started,
		MafiaCount: r.MafiaCount,
	}
}
