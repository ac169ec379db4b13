package wall

import (
	"math/rand"

	"github.com/mjgo/server/internal/tile"
)

// RNGVersion identifies the shuffle algorithm. Bump it whenever the mapping
// from seed to wall order changes; replays record it next to the seed.
const RNGVersion = 1

// DeadWallSize is fixed at fourteen tiles. After every kan one live-wall tile
// migrates to the dead wall so the count stays fourteen.
const DeadWallSize = 14

// MaxDoraIndicators bounds revealed indicators (base + four kan dora).
const MaxDoraIndicators = 5

// Wall holds the live wall (drawn from the head) and the dead wall.
// Dead wall layout: index 0..3 are rinshan replacement tiles, indices
// 4,6,8,10,12 are dora indicators and 5,7,9,11,13 the matching ura indicators.
type Wall struct {
	Live []tile.Tile
	Dead []tile.Tile

	RinshanDrawn int // rinshan tiles consumed (0..4)
	DoraRevealed int // revealed dora indicator count (1..5)

	// PendingDoraCount defers the kan-dora reveal for open/added kans until
	// the replacement discard survives the ron window.
	PendingDoraCount int
}

// New shuffles all 136 tiles with the given seed and splits off the dead wall
// from the tail.
func New(seed int64) *Wall {
	tiles := make([]tile.Tile, tile.NumTiles)
	for i := range tiles {
		tiles[i] = tile.Tile(i)
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})

	w := &Wall{
		Live:         tiles[:tile.NumTiles-DeadWallSize],
		Dead:         tiles[tile.NumTiles-DeadWallSize:],
		DoraRevealed: 1,
	}
	return w
}

// Clone returns a deep copy; round-state transitions copy the whole wall.
func (w *Wall) Clone() *Wall {
	c := *w
	c.Live = append([]tile.Tile(nil), w.Live...)
	c.Dead = append([]tile.Tile(nil), w.Dead...)
	return &c
}

// Remaining is the number of live-wall draws left.
func (w *Wall) Remaining() int { return len(w.Live) }

// Draw removes and returns the head of the live wall. ok is false when empty.
func (w *Wall) Draw() (tile.Tile, bool) {
	if len(w.Live) == 0 {
		return 0, false
	}
	t := w.Live[0]
	w.Live = w.Live[1:]
	return t, true
}

// DrawRinshan takes a replacement tile from the dead wall after a kan and
// moves the live-wall tail tile into the dead wall to keep it at fourteen.
func (w *Wall) DrawRinshan() (tile.Tile, bool) {
	if w.RinshanDrawn >= 4 || len(w.Live) == 0 {
		return 0, false
	}
	t := w.Dead[w.RinshanDrawn]
	w.RinshanDrawn++

	last := len(w.Live) - 1
	w.Dead[w.RinshanDrawn-1] = w.Live[last]
	w.Live = w.Live[:last]
	return t, true
}

// DoraIndicators returns the revealed indicator tiles.
func (w *Wall) DoraIndicators() []tile.Tile {
	out := make([]tile.Tile, 0, w.DoraRevealed)
	for i := 0; i < w.DoraRevealed; i++ {
		out = append(out, w.Dead[4+2*i])
	}
	return out
}

// UraIndicators returns one ura indicator per revealed dora indicator.
// Consulted only for riichi winners.
func (w *Wall) UraIndicators() []tile.Tile {
	out := make([]tile.Tile, 0, w.DoraRevealed)
	for i := 0; i < w.DoraRevealed; i++ {
		out = append(out, w.Dead[5+2*i])
	}
	return out
}

// RevealDora uncovers the next indicator immediately. Returns the indicator
// tile, or ok=false when all five are already shown.
func (w *Wall) RevealDora() (tile.Tile, bool) {
	if w.DoraRevealed >= MaxDoraIndicators {
		return 0, false
	}
	t := w.Dead[4+2*w.DoraRevealed]
	w.DoraRevealed++
	return t, true
}

// DeferDora queues a kan-dora reveal to be flushed after the replacement
// discard passes the ron check.
func (w *Wall) DeferDora() {
	if w.DoraRevealed+w.PendingDoraCount < MaxDoraIndicators {
		w.PendingDoraCount++
	}
}

// FlushPendingDora reveals all deferred indicators and returns them.
func (w *Wall) FlushPendingDora() []tile.Tile {
	var out []tile.Tile
	for w.PendingDoraCount > 0 {
		w.PendingDoraCount--
		if t, ok := w.RevealDora(); ok {
			out = append(out, t)
		}
	}
	return out
}
