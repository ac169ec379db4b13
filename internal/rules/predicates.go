package rules

import (
	"sort"

	"github.com/mjgo/server/internal/tile"
)

// TilesOfType returns the physical copies of tt held in hand, in hand order.
func TilesOfType(hand []tile.Tile, tt tile.Type) []tile.Tile {
	var out []tile.Tile
	for _, t := range hand {
		if t.Type() == tt {
			out = append(out, t)
		}
	}
	return out
}

// CanPon reports whether hand holds at least two copies of the discard's type.
func CanPon(hand []tile.Tile, discarded tile.Tile) bool {
	return len(TilesOfType(hand, discarded.Type())) >= 2
}

// CanOpenKan reports whether hand holds the other three copies.
func CanOpenKan(hand []tile.Tile, discarded tile.Tile) bool {
	return len(TilesOfType(hand, discarded.Type())) >= 3
}

// ChiOption is a pair of hand tiles forming a run with the called tile.
type ChiOption struct {
	Tiles [2]tile.Tile
}

// ChiOptions enumerates the distinct two-tile combinations that chi the
// discard. Only the kamicha may chi; the caller enforces seat adjacency.
func ChiOptions(hand []tile.Tile, discarded tile.Tile) []ChiOption {
	dt := discarded.Type()
	if dt.IsHonor() {
		return nil
	}
	pick := func(tt tile.Type) (tile.Tile, bool) {
		ts := TilesOfType(hand, tt)
		if len(ts) == 0 {
			return 0, false
		}
		return ts[0], true
	}
	var out []ChiOption
	n := dt.Number()
	try := func(a, b tile.Type) {
		ta, ok1 := pick(a)
		tb, ok2 := pick(b)
		if ok1 && ok2 {
			out = append(out, ChiOption{Tiles: [2]tile.Tile{ta, tb}})
		}
	}
	if n >= 3 {
		try(dt-2, dt-1)
	}
	if n >= 2 && n <= 8 {
		try(dt-1, dt+1)
	}
	if n <= 7 {
		try(dt+1, dt+2)
	}
	return out
}

// ValidChiPair checks a client-submitted sequence pair: both tiles in hand and
// forming a run with the called tile within one suit.
func ValidChiPair(hand []tile.Tile, discarded tile.Tile, pair [2]tile.Tile) bool {
	inHand := func(t tile.Tile) bool {
		for _, h := range hand {
			if h == t {
				return true
			}
		}
		return false
	}
	if pair[0] == pair[1] || !inHand(pair[0]) || !inHand(pair[1]) {
		return false
	}
	types := []tile.Type{discarded.Type(), pair[0].Type(), pair[1].Type()}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return tile.Sequence(types[0], types[1], types[2])
}

// ClosedKanTypes lists the types with all four copies concealed in hand.
func ClosedKanTypes(hand []tile.Tile) []tile.Type {
	h := CountTypes(hand)
	var out []tile.Type
	for i := 0; i < tile.NumTypes; i++ {
		if h[i] == 4 {
			out = append(out, tile.Type(i))
		}
	}
	return out
}

// AddedKanTypes lists the types of existing pons whose fourth copy is in hand.
func AddedKanTypes(hand []tile.Tile, melds []Meld) []tile.Type {
	var out []tile.Type
	for _, m := range melds {
		if m.Kind != Pon {
			continue
		}
		if len(TilesOfType(hand, m.Type())) > 0 {
			out = append(out, m.Type())
		}
	}
	return out
}

// RiichiClosedKanOK enforces the riichi restriction on a closed kan: the kan
// tile must be the drawn tile and removing all four copies must leave the
// wait set unchanged.
func RiichiClosedKanOK(hand []tile.Tile, melds []Meld, drawn tile.Tile, kan tile.Type) bool {
	if drawn.Type() != kan {
		return false
	}
	before := CountTypes(hand)
	before[drawn.Type()]-- // waits of the 13-tile hand pre-draw
	after := CountTypes(hand)
	after[kan] -= 4

	w1 := Waits(before, len(melds))
	w2 := Waits(after, len(melds)+1)
	if len(w1) != len(w2) {
		return false
	}
	for i := range w1 {
		if w1[i] != w2[i] {
			return false
		}
	}
	return true
}

// RiichiOption pairs a tenpai-preserving discard with the resulting waits.
type RiichiOption struct {
	Discard tile.Tile
	Waits   []tile.Type
}

// RiichiOptions enumerates, for a closed 14-tile hand, every discard that
// leaves the hand tenpai. One option per distinct discard type (any physical
// copy serves; the first is reported).
func RiichiOptions(hand []tile.Tile, melds []Meld) []RiichiOption {
	for _, m := range melds {
		if m.Kind.Open() {
			return nil
		}
	}
	h := CountTypes(hand)
	seen := make(map[tile.Type]bool)
	var out []RiichiOption
	for _, t := range hand {
		tt := t.Type()
		if seen[tt] {
			continue
		}
		seen[tt] = true
		work := h
		work[tt]--
		if waits := Waits(work, len(melds)); len(waits) > 0 {
			out = append(out, RiichiOption{Discard: t, Waits: waits})
		}
	}
	return out
}

// CanKyuushu reports nine-or-more distinct yaochuu types in a 14-tile hand.
// Valid only on the seat's first draw with no prior call interruption; the
// state machine enforces that part.
func CanKyuushu(hand []tile.Tile) bool {
	h := CountTypes(hand)
	distinct := 0
	for _, tt := range tile.Kokushi {
		if h[tt] > 0 {
			distinct++
		}
	}
	return distinct >= 9
}

// TenpaiWaits returns the waits of a 13-shaped concealed hand with melds.
func TenpaiWaits(hand []tile.Tile, melds []Meld) []tile.Type {
	return Waits(CountTypes(hand), len(melds))
}

// WinsOn reports whether the hand completes by claiming t.
func WinsOn(hand []tile.Tile, melds []Meld, t tile.Tile) bool {
	h := CountTypes(hand)
	h[t.Type()]++
	return IsAgari(h, len(melds))
}
