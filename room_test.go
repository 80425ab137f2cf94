package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSetReferee_SingleReferee(t *testing.T) {
	room := roomWithPlayers(3)

	room.setReferee("b")
	room.setReferee("c")

	refs := 0
	for _, p := range room.Players() {
		if p.IsReferee {
			refs++
			if p.Token != room.RefereeToken {
				t.Errorf("referee flag on %s but RefereeToken is %s", p.Token, room.RefereeToken)
			}
		}
	}
	if refs != 1 {
		t.Errorf("expected exactly 1 referee, got %d", refs)
	}
	if room.RefereeToken != "c" {
		t.Errorf("RefereeToken = %s, want c", room.RefereeToken)
	}
}

func TestSetReferee_MissingTargetClears(t *testing.T) {
	room := roomWithPlayers(3)
	room.setReferee("b")

	room.setReferee("nope")

	if room.RefereeToken != "" {
		t.Errorf("RefereeToken should be empty, got %s", room.RefereeToken)
	}
	for _, p := range room.Players() {
		if p.IsReferee {
			t.Errorf("player %s should not be referee", p.Token)
		}
	}
}

func TestSetReferee_SelfRefereeAllowed(t *testing.T) {
	room := roomWithPlayers(3)

	room.setReferee("a") // the host

	if room.RefereeToken != "a" || !room.Player("a").IsReferee {
		t.Error("host should be allowed to referee their own room")
	}
}

func TestSetReferee_MidRoundClearsRole(t *testing.T) {
	room := roomWithPlayers(4)
	room.MafiaCount = 1
	if err := room.startRound(testRand()); err != nil {
		t.Fatalf("startRound: %v", err)
	}

	room.setReferee("b")

	if room.Player("b").Role != RoleNone {
		t.Error("a mid-round referee should not keep a role")
	}
}

func TestMarkDisconnected_PreservesIdentity(t *testing.T) {
	room := roomWithPlayers(3)
	room.MafiaCount = 1
	if err := room.startRound(testRand()); err != nil {
		t.Fatalf("startRound: %v", err)
	}

	host := room.Player("a")
	role := host.Role
	room.markDisconnected(host)

	if host.Connected {
		t.Error("player should be marked disconnected")
	}
	if host.client != nil {
		t.Error("transport handle should be cleared")
	}
	if !host.IsHost {
		t.Error("host flag must survive disconnection")
	}
	if host.Role != role {
		t.Errorf("role must survive disconnection: had %q, now %q", role, host.Role)
	}
	if host.Name != "player-a" {
		t.Error("name must survive disconnection")
	}
}

func TestMarkDisconnected_ClearsReferee(t *testing.T) {
	room := roomWithPlayers(3)
	room.setReferee("b")

	room.markDisconnected(room.Player("b"))

	if room.Player("b").IsReferee {
		t.Error("referee flag should be cleared on disconnect")
	}
	if room.RefereeToken != "" {
		t.Errorf("RefereeToken should be cleared, got %s", room.RefereeToken)
	}
}

// The general snapshot must never reveal roles, no matter who views
// it: need-to-know is enforced structurally, not by blanking fields.
func TestProject_SnapshotCarriesNoRoles(t *testing.T) {
	room := roomWithPlayers(4)
	room.setReferee("d")
	room.MafiaCount = 1
	if err := room.startRound(testRand()); err != nil {
		t.Fatalf("startRound: %v", err)
	}

	for _, viewer := range []string{"a", "b", "c", "d", "outsider"} {
		raw, err := json.Marshal(room.Project(viewer).State)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		for _, role := range []string{"mafia", "doctor", "detective", "citizen"} {
			if strings.Contains(string(raw), role) {
				t.Errorf("snapshot for viewer %s leaks %q: %s", viewer, role, raw)
			}
		}
	}
}

func TestProject_ViewerClasses(t *testing.T) {
	room := roomWithPlayers(4)
	room.setReferee("d")
	room.MafiaCount = 1
	if err := room.startRound(testRand()); err != nil {
		t.Fatalf("startRound: %v", err)
	}

	// Player with a role: own role, no overview.
	view := room.Project("b")
	if view.YourRole == RoleNone {
		t.Error("role-holding player should see their own role")
	}
	if view.YourRole != room.Player("b").Role {
		t.Errorf("viewer b sees %q, holds %q", view.YourRole, room.Player("b").Role)
	}
	if view.Overview != nil {
		t.Error("non-referee must not receive the overview")
	}

	// Host is just another player here.
	view = room.Project("a")
	if view.YourRole != room.Player("a").Role || view.Overview != nil {
		t.Error("host should see exactly their own role and nothing else")
	}

	// Referee: overview, no own role.
	view = room.Project("d")
	if view.YourRole != RoleNone {
		t.Error("referee should not receive a role of their own")
	}
	if len(view.Overview) != 3 {
		t.Errorf("referee overview should cover 3 players, got %d", len(view.Overview))
	}

	// Player joining mid-round, no role dealt yet.
	room.addPlayer(&Player{Token: "e", Name: "late", Connected: true})
	view = room.Project("e")
	if view.YourRole != RoleNone || view.Overview != nil {
		t.Error("role-less player should receive no private payload")
	}

	// Outside observer.
	view = room.Project("outsider")
	if view.YourRole != RoleNone || view.Overview != nil {
		t.Error("outside observer should receive no private payload")
	}
}

func TestProject_LobbyHasNoPrivatePayloads(t *testing.T) {
	room := roomWithPlayers(3)
	room.setReferee("c")

	for _, viewer := range []string{"a", "b", "c"} {
		view := room.Project(viewer)
		if view.YourRole != RoleNone || view.Overview != nil {
			t.Errorf("lobby view for %s should carry no private payload", viewer)
		}
	}
}

func TestOverview_MafiaFirstOrdering(t *testing.T) {
	room := roomWithPlayers(6)
	room.setReferee("f")
	room.MafiaCount = 2
	if err := room.startRound(testRand()); err != nil {
		t.Fatalf("startRound: %v", err)
	}

	overview := room.overview()
	if len(overview) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(overview))
	}

	want := []Role{RoleMafia, RoleMafia, RoleDoctor, RoleDetective, RoleCitizen}
	for i, entry := range overview {
		if entry.Role != want[i] {
			t.Errorf("overview[%d] = %s, want %s", i, entry.Role, want[i])
		}
	}
}

func TestSnapshot_MembershipFields(t *testing.T) {
	room := roomWithPlayers(3)
	room.setReferee("b")
	room.markDisconnected(room.Player("c"))

	state := room.Project("a").State

	if state.ID != room.ID || state.Name != "Town" || state.HostID != "a" {
		t.Errorf("unexpected snapshot header: %+v", state)
	}
	if state.RefereeID != "b" {
		t.Errorf("RefereeID = %s, want b", state.RefereeID)
	}
	if len(state.Players) != 3 {
		t.Fatalf("expected 3 players in snapshot, got %d", len(state.Players))
	}
	if !state.Players[0].IsHost {
		t.Error("first player should be flagged host")
	}
	if !state.Players[1].IsReferee {
		t.Error("second player should be flagged referee")
	}
	if state.Players[2].Connected {
		t.Error("third player should show disconnected")
	}
}
