package main

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                  // "hello", "create_room", "join_room", "leave_room", "delete_room", "set_referee", "set_mafia_count", "start_game", "reset_game", "change_name"
	SessionID  string `json:"session_id,omitempty"`  // hello (optional; minted when absent)
	Name       string `json:"name,omitempty"`        // create_room / join_room
	RoomName   string `json:"room_name,omitempty"`   // create_room
	RoomID     string `json:"room_id,omitempty"`     // join_room / leave_room / delete_room / set_referee / set_mafia_count / start_game / reset_game / change_name (optional)
	RefereeID  string `json:"referee_id,omitempty"`  // set_referee
	MafiaCount *int   `json:"mafia_count,omitempty"` // set_mafia_count
	NewName    string `json:"new_name,omitempty"`    // change_name
}

// HelloAckMessage confirms or issues a session id.
type HelloAckMessage struct {
	Type      string `json:"type"` // "hello_ack"
	SessionID string `json:"session_id"`
}

// RoomsUpdatedMessage tells clients the public listing changed; they
// re-fetch it from the listing endpoint.
type RoomsUpdatedMessage struct {
	Type string `json:"type"` // "rooms_updated"
}

// JoinedRoomMessage confirms a join/reconnect to a single client.
type JoinedRoomMessage struct {
	Type   string `json:"type"` // "joined_room"
	RoomID string `json:"room_id"`
}

// RoomStateMessage carries the shared room snapshot. Roles are never
// included here; they travel only over YourRoleMessage and
// RolesOverviewMessage.
type RoomStateMessage struct {
	Type string       `json:"type"` // "room_state"
	Room RoomSnapshot `json:"room"`
}

// YourRoleMessage is sent privately to a single player.
type YourRoleMessage struct {
	Type string `json:"type"` // "your_role"
	Role Role   `json:"role"`
}

// RolesOverviewMessage is sent only to the referee.
type RolesOverviewMessage struct {
	Type    string      `json:"type"` // "roles_overview"
	Players []RoleEntry `json:"players"`
}

// RoomDeletedMessage informs members their room is gone.
type RoomDeletedMessage struct {
	Type   string `json:"type"` // "room_deleted"
	RoomID string `json:"room_id"`
}

// ErrorMessage is a user-facing failure notice.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// RoomSnapshot is the per-room payload inside RoomStateMessage.
type RoomSnapshot struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	HostID     string           `json:"host_id"`
	RefereeID  string           `json:"referee_id,omitempty"`
	MafiaCount int              `json:"mafia_count"`
	Started    bool             `json:"started"`
	Players    []PlayerSnapshot `json:"players"`
}

type PlayerSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"is_host"`
	IsReferee bool   `json:"is_referee"`
}

// RoleEntry is one row of the referee's overview.
type RoleEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// RoomListing is one row of the public room list, served by the
// listing endpoint.
type RoomListing struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HostID     string `json:"host_id"`
	Players    int    `json:"players"`
	Started    bool   `json:"started"`
	MafiaCount int    `json:"mafia_count"`
}
