package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mjgo/server/internal/net"
)

func TestRoomCapacityAndReadiness(t *testing.T) {
	r := &room{id: "r1", numAI: 2}
	assert.Equal(t, 2, r.capacity())
	assert.False(t, r.allReady(), "an empty room never starts")

	r.players = append(r.players, &roomPlayer{name: "alpha", ready: true})
	assert.False(t, r.allReady(), "a half-filled room waits")

	r.players = append(r.players, &roomPlayer{name: "beta"})
	assert.False(t, r.allReady())

	r.players[1].ready = true
	assert.True(t, r.allReady())
}

func TestRoomRoster(t *testing.T) {
	r := &room{
		players: []*roomPlayer{
			{name: "alpha", ready: true},
			{name: "beta"},
		},
	}
	roster := r.roster()
	assert.Equal(t, "alpha", roster[0].Name)
	assert.True(t, roster[0].Ready)
	assert.Equal(t, "beta", roster[1].Name)
	assert.False(t, roster[1].Ready)
}

func TestRoomFindAndRemove(t *testing.T) {
	p := &roomPlayer{conn: &net.WSConn{}, name: "alpha"}
	r := &room{players: []*roomPlayer{p}}

	assert.Same(t, p, r.find(p.conn.ID()))
	assert.Nil(t, r.find(p.conn.ID()+1))

	assert.False(t, r.remove(p.conn.ID()+1))
	assert.True(t, r.remove(p.conn.ID()))
	assert.Empty(t, r.players)
}
