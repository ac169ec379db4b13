package session

import (
	"time"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/net"
)

// roomPlayer is one human in a casual room.
type roomPlayer struct {
	conn  *net.WSConn
	name  string
	ready bool
}

// room is a casual pre-game lobby: players join by id, flag ready, and the
// game starts once every seat is ready. Guarded by the Manager registry lock.
type room struct {
	id        string
	players   []*roomPlayer
	numAI     int
	createdAt time.Time

	// Set while the room is being promoted to a game so late messages
	// cannot double-start it.
	transitioning bool
}

func (r *room) capacity() int { return 4 - r.numAI }

func (r *room) roster() []event.RoomPlayerInfo {
	out := make([]event.RoomPlayerInfo, len(r.players))
	for i, p := range r.players {
		out[i] = event.RoomPlayerInfo{Name: p.name, Ready: p.ready}
	}
	return out
}

func (r *room) find(connID uint64) *roomPlayer {
	for _, p := range r.players {
		if p.conn.ID() == connID {
			return p
		}
	}
	return nil
}

func (r *room) remove(connID uint64) bool {
	for i, p := range r.players {
		if p.conn.ID() == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *room) allReady() bool {
	if len(r.players) == 0 || len(r.players) < r.capacity() {
		return false
	}
	for _, p := range r.players {
		if !p.ready {
			return false
		}
	}
	return true
}

func (r *room) broadcast(ev event.Event) {
	for _, p := range r.players {
		p.conn.Send(ev)
	}
}
