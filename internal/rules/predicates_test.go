package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjgo/server/internal/tile"
)

func TestCanPonAndOpenKan(t *testing.T) {
	var b bag
	hand := b.tiles(t, "55m123p789s")
	disc := b.take(t, 4) // third 5m

	assert.True(t, CanPon(hand, disc))
	assert.False(t, CanOpenKan(hand, disc))

	hand = append(hand, b.take(t, 4)) // third copy into hand
	assert.True(t, CanOpenKan(hand, disc))
}

func TestChiOptions(t *testing.T) {
	var b bag
	hand := b.tiles(t, "124578m")
	disc := b.take(t, 2) // 3m

	opts := ChiOptions(hand, disc)
	require.Len(t, opts, 3)
	types := func(o ChiOption) [2]tile.Type {
		return [2]tile.Type{o.Tiles[0].Type(), o.Tiles[1].Type()}
	}
	assert.Equal(t, [2]tile.Type{0, 1}, types(opts[0]))
	assert.Equal(t, [2]tile.Type{1, 3}, types(opts[1]))
	assert.Equal(t, [2]tile.Type{3, 4}, types(opts[2]))

	// Edge tile: only one direction exists.
	b2 := bag{}
	hand = b2.tiles(t, "23m")
	opts = ChiOptions(hand, b2.take(t, 0)) // 1m
	require.Len(t, opts, 1)
	assert.Equal(t, [2]tile.Type{1, 2}, types(opts[0]))

	// Honors cannot be chied.
	assert.Nil(t, ChiOptions(hand, b2.take(t, tile.East)))
}

func TestValidChiPair(t *testing.T) {
	var b bag
	hand := b.tiles(t, "4568m")
	disc := b.take(t, 2) // 3m

	assert.True(t, ValidChiPair(hand, disc, [2]tile.Tile{hand[0], hand[1]}))
	assert.True(t, ValidChiPair(hand, disc, [2]tile.Tile{hand[1], hand[0]}), "order free")
	assert.False(t, ValidChiPair(hand, disc, [2]tile.Tile{hand[0], hand[2]}), "3m+4m+6m is no run")
	assert.False(t, ValidChiPair(hand, disc, [2]tile.Tile{hand[0], hand[0]}), "same tile twice")

	outside := b.take(t, 3) // a 4m the hand does not hold
	assert.False(t, ValidChiPair(hand, disc, [2]tile.Tile{outside, hand[1]}))
}

func TestClosedAndAddedKanTypes(t *testing.T) {
	var b bag
	hand := b.tiles(t, "1111m2p555z")
	assert.Equal(t, []tile.Type{0}, ClosedKanTypes(hand))

	pon := Meld{Kind: Pon, Tiles: b.tiles(t, "222p"), From: 1}
	melds := []Meld{pon}
	assert.Equal(t, []tile.Type{10}, AddedKanTypes(hand, melds), "fourth 2p upgrades the pon")

	chi := Meld{Kind: Chi, Tiles: b.tiles(t, "345s"), From: 2}
	assert.Empty(t, AddedKanTypes(hand, []Meld{chi}), "chi never upgrades")
}

func TestRiichiClosedKanOK(t *testing.T) {
	var b bag
	// Waiting on 3m; the fourth east was just drawn and its kan keeps the wait.
	hand := b.tiles(t, "234m567m88p24p111z")
	drawn := b.take(t, tile.East)
	hand = append(hand, drawn)
	assert.True(t, RiichiClosedKanOK(hand, nil, drawn, tile.East))

	// Kan tile is not the draw.
	assert.False(t, RiichiClosedKanOK(hand, nil, hand[0], tile.East))

	// Kanning the 4m set would grow the wait from {1m} to {1m,4m}.
	b2 := bag{}
	hand = b2.tiles(t, "23444m567p789p22s")
	drawn = b2.take(t, 3) // fourth 4m
	hand = append(hand, drawn)
	assert.False(t, RiichiClosedKanOK(hand, nil, drawn, tile.Type(3)))
}

func TestRiichiOptions(t *testing.T) {
	var b bag
	hand := b.tiles(t, "1234m456p789s1122z")

	opts := RiichiOptions(hand, nil)
	require.Len(t, opts, 2)
	got := map[tile.Type][]tile.Type{}
	for _, o := range opts {
		got[o.Discard.Type()] = o.Waits
	}
	assert.Equal(t, []tile.Type{tile.East, tile.South}, got[0])
	assert.Equal(t, []tile.Type{tile.East, tile.South}, got[3])

	// Any open meld forbids riichi.
	open := []Meld{{Kind: Pon, Tiles: b.tiles(t, "333s"), From: 2}}
	assert.Nil(t, RiichiOptions(hand, open))

	// A closed kan does not.
	closed := []Meld{{Kind: ClosedKan, Tiles: b.tiles(t, "5555s"), From: -1}}
	b3 := bag{}
	assert.NotEmpty(t, RiichiOptions(b3.tiles(t, "123m456p789s12s"), closed))
}

func TestCanKyuushu(t *testing.T) {
	var b bag
	assert.True(t, CanKyuushu(b.tiles(t, "19m19p19s123z23456m")))
	b2 := bag{}
	assert.False(t, CanKyuushu(b2.tiles(t, "19m19p19s12z23456m7p")))
	b3 := bag{}
	// Nine yaochuu tiles of only five distinct types.
	assert.False(t, CanKyuushu(b3.tiles(t, "1199m1199p1s23456s")))
}

func TestDiscardFuriten(t *testing.T) {
	var b bag
	waits := []tile.Type{2, 20} // 3m, 3s
	own := b.tiles(t, "19m55z")
	assert.False(t, DiscardFuriten(waits, own))

	own = append(own, b.take(t, 20))
	assert.True(t, DiscardFuriten(waits, own))

	assert.False(t, DiscardFuriten(nil, own), "no waits, no furiten")
}

func TestWinsOn(t *testing.T) {
	var b bag
	hand := b.tiles(t, "123m456p789s1122z")
	assert.True(t, WinsOn(hand, nil, b.take(t, tile.East)))
	assert.False(t, WinsOn(hand, nil, b.take(t, 4)))
}
