package tile

import "fmt"

// Tile is a physical tile ID in 0..135. Four copies exist of each of the 34
// tile types; id/4 identifies the type and id%4 the copy. A tile ID never
// changes during a round — only its location (wall, hand, meld, discard).
type Tile int

// Type is a tile type in 0..33: man 0-8, pin 9-17, sou 18-26, honors 27-33
// (east, south, west, north, haku, hatsu, chun).
type Type int

const (
	NumTiles = 136
	NumTypes = 34

	East  Type = 27
	South Type = 28
	West  Type = 29
	North Type = 30
	Haku  Type = 31
	Hatsu Type = 32
	Chun  Type = 33
)

// Red fives: the first physical copy of each numbered 5 when red fives are in
// play (赤ドラ). 4*4=16 (5m), (9+4)*4=52 (5p), (18+4)*4=88 (5s).
var redFives = map[Tile]bool{16: true, 52: true, 88: true}

func (t Tile) Type() Type { return Type(t / 4) }

func (t Tile) Valid() bool { return t >= 0 && t < NumTiles }

// IsRedFive reports whether this physical copy is a red five. Callers gate on
// the UseRedFives rule switch.
func (t Tile) IsRedFive() bool { return redFives[t] }

// Suit returns 0=man, 1=pin, 2=sou, 3=honor.
func (tt Type) Suit() int { return int(tt) / 9 }

// Number returns the 1..9 face value of a numbered tile, 0 for honors.
func (tt Type) Number() int {
	if tt.IsHonor() {
		return 0
	}
	return int(tt)%9 + 1
}

func (tt Type) IsHonor() bool { return tt >= East }

func (tt Type) IsTerminal() bool {
	if tt.IsHonor() {
		return false
	}
	n := tt.Number()
	return n == 1 || n == 9
}

// IsYaochuu reports terminal-or-honor (幺九牌).
func (tt Type) IsYaochuu() bool { return tt.IsHonor() || tt.IsTerminal() }

// Kokushi lists the thirteen yaochuu types.
var Kokushi = [13]Type{0, 8, 9, 17, 18, 26, East, South, West, North, Haku, Hatsu, Chun}

// WindType maps a wind index 0..3 (east..north) to its honor type.
func WindType(wind int) Type { return East + Type(wind) }

// DoraFromIndicator returns the dora type shown by an indicator type:
// next in suit with 9→1 wraparound, winds cycle E→S→W→N→E, dragons 白→發→中→白.
func DoraFromIndicator(ind Type) Type {
	switch {
	case ind < East:
		base := (int(ind) / 9) * 9
		return Type(base + (int(ind)-base+1)%9)
	case ind <= North:
		return East + Type((int(ind-East)+1)%4)
	default:
		return Haku + Type((int(ind-Haku)+1)%3)
	}
}

var suitNames = [3]string{"m", "p", "s"}
var honorNames = [7]string{"東", "南", "西", "北", "白", "發", "中"}

func (tt Type) String() string {
	if tt.IsHonor() {
		return honorNames[tt-East]
	}
	return fmt.Sprintf("%d%s", tt.Number(), suitNames[tt.Suit()])
}

func (t Tile) String() string {
	return fmt.Sprintf("%s#%d", t.Type(), int(t)%4)
}

// Sequence reports whether the three types form a run within one numbered
// suit. Inputs must already be sorted ascending.
func Sequence(a, b, c Type) bool {
	if a.IsHonor() || c.IsHonor() {
		return false
	}
	return a.Suit() == b.Suit() && b.Suit() == c.Suit() && b == a+1 && c == b+1
}
