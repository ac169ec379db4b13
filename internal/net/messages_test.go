package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjgo/server/internal/event"
)

func TestDecodeClient(t *testing.T) {
	m, err := DecodeClient([]byte(`{"type":"game_action","action":"discard","tile_id":53}`))
	require.NoError(t, err)
	assert.Equal(t, MsgGameAction, m.Type)
	assert.Equal(t, ActionDiscard, m.Action)
	require.NotNil(t, m.TileID)
	assert.Equal(t, 53, *m.TileID)

	m, err = DecodeClient([]byte(`{"type":"game_action","action":"call_chi","sequence_tiles":[12,16]}`))
	require.NoError(t, err)
	require.NotNil(t, m.SequenceTiles)
	assert.Equal(t, [2]int{12, 16}, *m.SequenceTiles)

	// Tile 0 is a legal tile; absence must stay distinguishable from it.
	m, err = DecodeClient([]byte(`{"type":"game_action","action":"pass"}`))
	require.NoError(t, err)
	assert.Nil(t, m.TileID)

	m, err = DecodeClient([]byte(`{"type":"set_ready","room_id":"r1","ready":false}`))
	require.NoError(t, err)
	require.NotNil(t, m.Ready)
	assert.False(t, *m.Ready)
}

func TestDecodeClientRejects(t *testing.T) {
	_, err := DecodeClient([]byte(`{"action":"discard"}`))
	assert.Error(t, err, "envelope without a type")

	_, err = DecodeClient([]byte(`{`))
	assert.Error(t, err)
}

func TestEncodeEvent(t *testing.T) {
	b, err := EncodeEvent(event.NewBroadcast(event.TypeDiscard, event.Discard{Seat: 2, Tile: 9}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"discard","data":{"seat":2,"tile_id":9,"is_tsumogiri":false,"is_riichi":false}}`, string(b))
}
