package main

import (
	"errors"
	"math/rand/v2"
	"time"
)

const (
	minActivePlayers = 3
	maxMafiaCount    = 10
)

var errNeedPlayers = errors.New("Need at least 3 players (excluding referee)")

func clampMafiaCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxMafiaCount {
		return maxMafiaCount
	}
	return n
}

// roleDeck builds the fixed role multiset for a round: one Doctor, one
// Detective, mafiaCount Mafia, and Citizens filling the remaining
// slots. When mafiaCount+2 reaches the pool size there are simply no
// Citizens.
func roleDeck(poolSize, mafiaCount int) []Role {
	deck := make([]Role, 0, poolSize)
	deck = append(deck, RoleDoctor, RoleDetective)
	for i := 0; i < mafiaCount; i++ {
		deck = append(deck, RoleMafia)
	}
	for len(deck) < poolSize {
		deck = append(deck, RoleCitizen)
	}
	return deck
}

// activePool returns the connected, non-referee players in join order.
// These are the players dealt a role when a round starts.
func (r *Room) activePool() []*Player {
	pool := make([]*Player, 0, len(r.order))
	for _, p := range r.Players() {
		if p.Connected && !p.IsReferee {
			pool = append(pool, p)
		}
	}
	return pool
}

// startRound shuffles the role deck and deals it positionally to the
// active pool, then flips the room to started. The room is untouched
// on failure.
func (r *Room) startRound(rng *rand.Rand) error {
	pool := r.activePool()
	if len(pool) < minActivePlayers {
		return errNeedPlayers
	}

	deck := roleDeck(len(pool), r.MafiaCount)
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	for i, p := range pool {
		p.Role = deck[i]
	}
	r.Started = true
	r.StartedAt = time.Now()

	return nil
}

// resetRound returns the room to the lobby state. Safe to call
// repeatedly; a reset lobby resets to itself.
func (r *Room) resetRound() {
	for _, p := range r.players {
		p.Role = RoleNone
	}
	r.Started = false
	r.StartedAt = time.Time{}
}
