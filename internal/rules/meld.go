package rules

import "github.com/mjgo/server/internal/tile"

// MeldKind is a tagged meld variant.
type MeldKind int

const (
	Pon MeldKind = iota
	Chi
	OpenKan
	ClosedKan
	AddedKan
)

var meldKindNames = [...]string{"pon", "chi", "open_kan", "closed_kan", "added_kan"}

func (k MeldKind) String() string { return meldKindNames[k] }

// Open reports whether the meld breaks concealment. A closed kan does not.
func (k MeldKind) Open() bool { return k != ClosedKan }

// IsKan reports any four-tile meld.
func (k MeldKind) IsKan() bool { return k >= OpenKan }

// Meld is a claimed or declared tile set belonging to one seat.
type Meld struct {
	Kind   MeldKind
	Tiles  []tile.Tile // 3 for pon/chi, 4 for kans; includes Called if any
	Called tile.Tile   // the claimed tile (pon/chi/open kan/added kan)
	From   int         // seat the called tile came from; -1 for closed kan
}

// Type returns the tile type of a pon/kan meld, or the lowest type of a chi.
func (m Meld) Type() tile.Type {
	lo := m.Tiles[0].Type()
	for _, t := range m.Tiles[1:] {
		if t.Type() < lo {
			lo = t.Type()
		}
	}
	return lo
}

func (m Meld) Clone() Meld {
	c := m
	c.Tiles = append([]tile.Tile(nil), m.Tiles...)
	return c
}
