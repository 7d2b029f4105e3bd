package internal

import (
	"sort"
	"time"
)

// Player is one participant's entry in the room record. Entries persist for
// the room's lifetime: a disconnect only flips IsOnline so a returning player
// resumes its identity and score.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsOnline bool   `json:"is_online"`
	IsHost   bool   `json:"is_host"`
	JoinedAt int64  `json:"joined_at"`
}

func NewPlayer(id, name string, host bool) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		IsOnline: true,
		IsHost:   host,
		JoinedAt: time.Now().UnixMilli(),
	}
}

// OnlinePlayerCount counts players currently connected to the room.
func (r *Room) OnlinePlayerCount() int {
	count := 0
	for _, p := range r.Players {
		if p != nil && p.IsOnline {
			count++
		}
	}
	return count
}

// OnlinePlayerIDs returns online player ids ordered by join time (ties broken
// by id) so rotation order is stable across processes.
func (r *Room) OnlinePlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for id, p := range r.Players {
		if p != nil && p.IsOnline {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Players[ids[i]], r.Players[ids[j]]
		if a.JoinedAt != b.JoinedAt {
			return a.JoinedAt < b.JoinedAt
		}
		return a.ID < b.ID
	})
	return ids
}
