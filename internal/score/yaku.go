package score

import (
	"errors"

	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
)

// Context carries everything outside the tiles that scoring depends on.
type Context struct {
	Seat      int
	Dealer    int
	RoundWind tile.Type
	SeatWind  tile.Type

	Tsumo   bool
	WinTile tile.Tile

	Riichi       bool
	DoubleRiichi bool
	Ippatsu      bool
	Chankan      bool
	Rinshan      bool
	Haitei       bool // tsumo on the last live-wall tile
	Houtei       bool // ron on the discard after the last draw

	DoraIndicators []tile.Tile
	UraIndicators  []tile.Tile // consulted only when Riichi
	UseRedFives    bool
}

// YakuHan is one scored yaku. Yakuman entries carry Han 13 per multiple.
type YakuHan struct {
	Name string `json:"name"`
	Han  int    `json:"han"`
}

// HandValue is the result of Evaluate.
type HandValue struct {
	Yaku    []YakuHan `json:"yaku"`
	Han     int       `json:"han"`
	Fu      int       `json:"fu"`
	Yakuman int       `json:"yakuman"` // yakuman multiples; 0 for normal hands
}

// ErrNoYaku marks a complete hand with no yaku; such a hand cannot win.
var ErrNoYaku = errors.New("complete hand has no yaku")

// Evaluate scores a winning hand. concealed excludes the winning tile; melds
// are the seat's called/declared sets. It picks the highest-value
// decomposition (han first, then fu).
func Evaluate(concealed []tile.Tile, melds []rules.Meld, ctx Context) (HandValue, error) {
	all := append(append([]tile.Tile(nil), concealed...), ctx.WinTile)
	counts := rules.CountTypes(all)
	if !rules.IsAgari(counts, len(melds)) {
		return HandValue{}, errors.New("hand is not complete")
	}

	closed := true
	for _, m := range melds {
		if m.Kind.Open() {
			closed = false
		}
	}

	// Yakuman shapes first; they ignore fu and ordinary yaku.
	if ym := yakumanList(counts, melds, closed, ctx); len(ym) > 0 {
		v := HandValue{Yaku: ym}
		for _, y := range ym {
			v.Yakuman += y.Han / 13
		}
		v.Han = v.Yakuman * 13
		return v, nil
	}

	best := HandValue{}
	found := false

	if len(melds) == 0 && isChiitoiCounts(counts) {
		v := scoreVariant(nil, counts, melds, closed, true, ctx)
		if v.Han > 0 {
			best, found = v, true
		}
	}
	for _, groups := range decompose(counts, melds, ctx.WinTile.Type(), ctx.Tsumo) {
		v := scoreVariant(groups, counts, melds, closed, false, ctx)
		if v.Han == 0 {
			continue
		}
		if !found || v.Han > best.Han || (v.Han == best.Han && v.Fu > best.Fu) {
			best, found = v, true
		}
	}
	if !found {
		return HandValue{}, ErrNoYaku
	}

	// Dora never enables a win; added only once a yaku exists.
	if d := doraHan(all, melds, ctx); len(d) > 0 {
		for _, y := range d {
			best.Yaku = append(best.Yaku, y)
			best.Han += y.Han
		}
	}
	return best, nil
}

func scoreVariant(groups []Group, counts rules.Hand34, melds []rules.Meld, closed, chiitoi bool, ctx Context) HandValue {
	var ys []YakuHan
	add := func(name string, han int) { ys = append(ys, YakuHan{Name: name, Han: han}) }

	switch {
	case ctx.DoubleRiichi:
		add("double_riichi", 2)
	case ctx.Riichi:
		add("riichi", 1)
	}
	if ctx.Riichi && ctx.Ippatsu {
		add("ippatsu", 1)
	}
	if ctx.Tsumo && closed {
		add("menzen_tsumo", 1)
	}
	if ctx.Chankan {
		add("chankan", 1)
	}
	if ctx.Rinshan {
		add("rinshan_kaihou", 1)
	}
	if ctx.Haitei {
		add("haitei_raoyue", 1)
	}
	if ctx.Houtei {
		add("houtei_raoyui", 1)
	}

	if chiitoi {
		add("chiitoitsu", 2)
	} else {
		if closed && isPinfu(groups, ctx) {
			add("pinfu", 1)
		}
		ys = append(ys, groupYaku(groups, closed, ctx)...)
	}

	if allSimples(counts) {
		add("tanyao", 1)
	}
	ys = append(ys, flushYaku(counts, closed)...)
	if allYaochuuTypes(counts) && !chiitoi {
		add("honroutou", 2)
	}
	if chiitoi && allYaochuuTypes(counts) {
		add("honroutou", 2)
	}

	v := HandValue{Yaku: ys}
	for _, y := range ys {
		v.Han += y.Han
	}
	if v.Han > 0 {
		v.Fu = computeFu(groups, chiitoi, closed, ys, ctx)
	}
	return v
}

// groupYaku covers yaku that need the decomposition: yakuhai, toitoi,
// sanankou, sankantsu, shousangen, ittsuu, chanta/junchan, iipeikou.
func groupYaku(groups []Group, closed bool, ctx Context) []YakuHan {
	var ys []YakuHan
	add := func(name string, han int) { ys = append(ys, YakuHan{Name: name, Han: han}) }

	triplets, concealedTrips, kans, runs := 0, 0, 0, 0
	dragonTrips := 0
	var pairT tile.Type
	runCount := make(map[tile.Type]int)
	for _, g := range groups {
		switch g.Kind {
		case GroupPair:
			pairT = g.T
		case GroupRun:
			runs++
			runCount[g.T]++
		case GroupTriplet, GroupKan:
			triplets++
			if g.Kind == GroupKan {
				kans++
			}
			if g.Concealed {
				concealedTrips++
			}
			if g.T >= tile.Haku {
				dragonTrips++
			}
			if g.T == ctx.RoundWind {
				add("yakuhai_round_wind", 1)
			}
			if g.T == ctx.SeatWind {
				add("yakuhai_seat_wind", 1)
			}
			switch g.T {
			case tile.Haku:
				add("yakuhai_haku", 1)
			case tile.Hatsu:
				add("yakuhai_hatsu", 1)
			case tile.Chun:
				add("yakuhai_chun", 1)
			}
		}
	}

	if triplets == 4 {
		add("toitoi", 2)
	}
	if concealedTrips == 3 {
		add("sanankou", 2)
	}
	if kans == 3 {
		add("sankantsu", 2)
	}
	if dragonTrips == 2 && pairT >= tile.Haku {
		add("shousangen", 2)
	}

	// Ittsuu: 1-2-3, 4-5-6, 7-8-9 of one suit.
	for suit := 0; suit < 3; suit++ {
		base := tile.Type(suit * 9)
		if runCount[base] > 0 && runCount[base+3] > 0 && runCount[base+6] > 0 {
			if closed {
				add("ittsuu", 2)
			} else {
				add("ittsuu", 1)
			}
			break
		}
	}

	// Chanta/junchan: every group contains a terminal or honor.
	allOuter, anyHonor := true, false
	for _, g := range groups {
		switch g.Kind {
		case GroupRun:
			if g.T.Number() != 1 && g.T.Number() != 7 {
				allOuter = false
			}
		default:
			if !g.T.IsYaochuu() {
				allOuter = false
			}
			if g.T.IsHonor() {
				anyHonor = true
			}
		}
	}
	if allOuter && runs > 0 {
		switch {
		case !anyHonor && closed:
			add("junchan", 3)
		case !anyHonor:
			add("junchan", 2)
		case closed:
			add("chanta", 2)
		default:
			add("chanta", 1)
		}
	}

	if closed {
		pairsOfRuns := 0
		for _, c := range runCount {
			pairsOfRuns += c / 2
		}
		switch pairsOfRuns {
		case 1:
			add("iipeikou", 1)
		case 2:
			add("ryanpeikou", 3)
		}
	}
	return ys
}

func flushYaku(counts rules.Hand34, closed bool) []YakuHan {
	suits := make(map[int]bool)
	honors := false
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] == 0 {
			continue
		}
		if tile.Type(i).IsHonor() {
			honors = true
		} else {
			suits[tile.Type(i).Suit()] = true
		}
	}
	if len(suits) != 1 {
		return nil
	}
	switch {
	case !honors && closed:
		return []YakuHan{{Name: "chinitsu", Han: 6}}
	case !honors:
		return []YakuHan{{Name: "chinitsu", Han: 5}}
	case closed:
		return []YakuHan{{Name: "honitsu", Han: 3}}
	default:
		return []YakuHan{{Name: "honitsu", Han: 2}}
	}
}

func isPinfu(groups []Group, ctx Context) bool {
	winT := ctx.WinTile.Type()
	twoSided := false
	for _, g := range groups {
		switch g.Kind {
		case GroupTriplet, GroupKan:
			return false
		case GroupPair:
			if g.T.IsHonor() && (g.T >= tile.Haku || g.T == ctx.RoundWind || g.T == ctx.SeatWind) {
				return false
			}
		case GroupRun:
			if g.HasWin {
				// Open-ended wait: winning tile at either end, excluding the
				// 3-of-12x3 and 7-of-789 edge shapes.
				if winT == g.T && g.T.Number() <= 6 {
					twoSided = true
				}
				if winT == g.T+2 && g.T.Number() >= 2 {
					twoSided = true
				}
			}
		}
	}
	return twoSided
}

func allSimples(counts rules.Hand34) bool {
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] > 0 && tile.Type(i).IsYaochuu() {
			return false
		}
	}
	return true
}

func allYaochuuTypes(counts rules.Hand34) bool {
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] > 0 && !tile.Type(i).IsYaochuu() {
			return false
		}
	}
	return true
}

func isChiitoiCounts(counts rules.Hand34) bool {
	pairs := 0
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] == 2 {
			pairs++
		}
	}
	return pairs == 7
}

func doraHan(all []tile.Tile, melds []rules.Meld, ctx Context) []YakuHan {
	tiles := append([]tile.Tile(nil), all...)
	for _, m := range melds {
		tiles = append(tiles, m.Tiles...)
	}
	count := func(inds []tile.Tile) int {
		n := 0
		for _, ind := range inds {
			d := tile.DoraFromIndicator(ind.Type())
			for _, t := range tiles {
				if t.Type() == d {
					n++
				}
			}
		}
		return n
	}
	var ys []YakuHan
	if n := count(ctx.DoraIndicators); n > 0 {
		ys = append(ys, YakuHan{Name: "dora", Han: n})
	}
	if ctx.Riichi {
		if n := count(ctx.UraIndicators); n > 0 {
			ys = append(ys, YakuHan{Name: "uradora", Han: n})
		}
	}
	if ctx.UseRedFives {
		n := 0
		for _, t := range tiles {
			if t.IsRedFive() {
				n++
			}
		}
		if n > 0 {
			ys = append(ys, YakuHan{Name: "akadora", Han: n})
		}
	}
	return ys
}
