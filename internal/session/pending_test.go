package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjgo/server/internal/game"
	"github.com/mjgo/server/internal/net"
)

func specs(n int) []PendingPlayerSpec {
	names := []string{"alpha", "beta", "gamma", "delta"}
	out := make([]PendingPlayerSpec, n)
	for i := range out {
		out[i] = PendingPlayerSpec{
			Name:   names[i],
			UserID: "u-" + names[i],
			Ticket: "t-" + names[i],
		}
	}
	return out
}

func TestNewPendingGameValidation(t *testing.T) {
	st := game.DefaultSettings()

	_, err := newPendingGame("g", st, specs(2), 1)
	assert.ErrorIs(t, err, ErrBadPlayerCount, "2 humans + 1 AI is not a table")

	_, err = newPendingGame("g", st, specs(1), 4)
	assert.ErrorIs(t, err, ErrBadPlayerCount)

	_, err = newPendingGame("g", st, nil, 4)
	assert.ErrorIs(t, err, ErrBadPlayerCount, "at least one human must join")

	bad := specs(2)
	bad[1].Ticket = ""
	_, err = newPendingGame("g", st, bad, 2)
	assert.Error(t, err)

	pg, err := newPendingGame("g", st, specs(3), 1)
	require.NoError(t, err)
	assert.Len(t, pg.humans, 3)
	assert.Equal(t, 1, pg.numAI)
}

func TestNewPendingGameDuplicates(t *testing.T) {
	st := game.DefaultSettings()

	dup := specs(2)
	dup[1].Name = dup[0].Name
	_, err := newPendingGame("g", st, dup, 2)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	// Width-folded lookalikes are the same name.
	dup = specs(2)
	dup[0].Name = "Tanaka"
	dup[1].Name = "Ｔａｎａｋａ"
	_, err = newPendingGame("g", st, dup, 2)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	dup = specs(2)
	dup[1].UserID = dup[0].UserID
	_, err = newPendingGame("g", st, dup, 2)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	dup = specs(2)
	dup[1].Ticket = dup[0].Ticket
	_, err = newPendingGame("g", st, dup, 2)
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestMatchTicketAndOccupancy(t *testing.T) {
	pg, err := newPendingGame("g", game.DefaultSettings(), specs(2), 2)
	require.NoError(t, err)

	assert.Equal(t, 0, pg.connectedCount())
	assert.False(t, pg.full())

	seat := pg.matchTicket("t-alpha")
	require.NotNil(t, seat)
	assert.Equal(t, "alpha", seat.name)

	assert.Nil(t, pg.matchTicket("t-nobody"), "tickets never match across games")

	seat.conn = &net.WSConn{}
	assert.Equal(t, 1, pg.connectedCount())
	assert.False(t, pg.full())

	pg.matchTicket("t-beta").conn = &net.WSConn{}
	assert.True(t, pg.full())
}
