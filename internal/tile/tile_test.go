package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTileType(t *testing.T) {
	assert.Equal(t, Type(0), Tile(0).Type())
	assert.Equal(t, Type(0), Tile(3).Type())
	assert.Equal(t, Type(1), Tile(4).Type())
	assert.Equal(t, Chun, Tile(135).Type())
}

func TestTypeNumberAndSuit(t *testing.T) {
	assert.Equal(t, 1, Type(0).Number())  // 1m
	assert.Equal(t, 9, Type(8).Number())  // 9m
	assert.Equal(t, 5, Type(13).Number()) // 5p
	assert.Equal(t, 0, East.Number())

	assert.Equal(t, 0, Type(0).Suit())
	assert.Equal(t, 1, Type(9).Suit())
	assert.Equal(t, 2, Type(26).Suit())
	assert.Equal(t, 3, Haku.Suit())
}

func TestYaochuu(t *testing.T) {
	assert.True(t, Type(0).IsTerminal())
	assert.True(t, Type(26).IsTerminal()) // 9s
	assert.False(t, Type(4).IsTerminal()) // 5m
	assert.False(t, East.IsTerminal())

	assert.True(t, Type(0).IsYaochuu())
	assert.True(t, East.IsYaochuu())
	assert.True(t, Chun.IsYaochuu())
	assert.False(t, Type(13).IsYaochuu())

	for _, tt := range Kokushi {
		assert.True(t, tt.IsYaochuu(), "%v", tt)
	}
}

func TestWindType(t *testing.T) {
	assert.Equal(t, East, WindType(0))
	assert.Equal(t, North, WindType(3))
}

func TestDoraFromIndicator(t *testing.T) {
	cases := []struct {
		ind, dora Type
	}{
		{0, 1},   // 1m -> 2m
		{8, 0},   // 9m -> 1m
		{17, 9},  // 9p -> 1p
		{22, 23}, // 5s -> 6s
		{East, South},
		{North, East},
		{Haku, Hatsu},
		{Chun, Haku},
	}
	for _, c := range cases {
		assert.Equal(t, c.dora, DoraFromIndicator(c.ind), "indicator %v", c.ind)
	}
}

func TestSequence(t *testing.T) {
	assert.True(t, Sequence(0, 1, 2))    // 123m
	assert.True(t, Sequence(15, 16, 17)) // 789p
	assert.False(t, Sequence(7, 8, 9))   // 89m + 1p crosses suits
	assert.False(t, Sequence(East, South, West))
	assert.False(t, Sequence(0, 2, 4))
}

func TestRedFives(t *testing.T) {
	assert.True(t, Tile(16).IsRedFive())
	assert.True(t, Tile(52).IsRedFive())
	assert.True(t, Tile(88).IsRedFive())
	assert.False(t, Tile(17).IsRedFive())
	assert.Equal(t, Type(4), Tile(16).Type())
}

func TestValid(t *testing.T) {
	assert.True(t, Tile(0).Valid())
	assert.True(t, Tile(135).Valid())
	assert.False(t, Tile(136).Valid())
	assert.False(t, Tile(-1).Valid())
}
