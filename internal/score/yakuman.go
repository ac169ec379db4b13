package score

import (
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
)

// yakumanList detects yakuman shapes. Multiple yakuman stack (each entry is
// 13 han per multiple).
func yakumanList(counts rules.Hand34, melds []rules.Meld, closed bool, ctx Context) []YakuHan {
	var ys []YakuHan
	add := func(name string, mult int) { ys = append(ys, YakuHan{Name: name, Han: 13 * mult}) }

	if closed && rules.IsAgariKokushi(counts) {
		// Thirteen-sided wait pays double.
		work := counts
		work[ctx.WinTile.Type()]--
		allSingles := true
		for _, tt := range tile.Kokushi {
			if work[tt] != 1 {
				allSingles = false
				break
			}
		}
		if allSingles {
			add("kokushi_musou_juusanmen", 2)
		} else {
			add("kokushi_musou", 1)
		}
		return ys
	}

	trips, concealedTrips, kans := meldStats(counts, melds, ctx)

	if closed && concealedTrips == 4 {
		// Tanki wait pays double.
		if counts[ctx.WinTile.Type()] == 2 {
			add("suuankou_tanki", 2)
		} else {
			add("suuankou", 1)
		}
	}
	if kans == 4 {
		add("suukantsu", 1)
	}

	dragons, winds, windPair := 0, 0, false
	for _, t := range trips {
		if t >= tile.Haku {
			dragons++
		}
		if t >= tile.East && t <= tile.North {
			winds++
		}
	}
	pair := pairType(counts, melds)
	if pair >= tile.East && pair <= tile.North {
		windPair = true
	}
	if dragons == 3 {
		add("daisangen", 1)
	}
	if winds == 4 {
		add("daisuushii", 2)
	} else if winds == 3 && windPair {
		add("shousuushii", 1)
	}

	honorsOnly, terminalsOnly, greenOnly := true, true, true
	greens := map[tile.Type]bool{19: true, 20: true, 21: true, 23: true, 25: true, tile.Hatsu: true} // 2346 8s + 發
	seen := func(tt tile.Type) {
		if !tt.IsHonor() {
			honorsOnly = false
		}
		if !tt.IsTerminal() {
			terminalsOnly = false
		}
		if !greens[tt] {
			greenOnly = false
		}
	}
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] > 0 {
			seen(tile.Type(i))
		}
	}
	for _, m := range melds {
		for _, t := range m.Tiles {
			seen(t.Type())
		}
	}
	if honorsOnly {
		add("tsuuiisou", 1)
	}
	if terminalsOnly {
		add("chinroutou", 1)
	}
	if greenOnly {
		add("ryuuiisou", 1)
	}
	return ys
}

// meldStats gathers triplet/kan types across melds and the concealed hand
// (any standard decomposition yields the same triplet multiset for the
// yakuman checks used here).
func meldStats(counts rules.Hand34, melds []rules.Meld, ctx Context) (trips []tile.Type, concealedTrips, kans int) {
	for _, m := range melds {
		switch m.Kind {
		case rules.Pon:
			trips = append(trips, m.Type())
		case rules.OpenKan, rules.AddedKan:
			trips = append(trips, m.Type())
			kans++
		case rules.ClosedKan:
			trips = append(trips, m.Type())
			concealedTrips++
			kans++
		}
	}
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] >= 3 {
			trips = append(trips, tile.Type(i))
			// A ron-completed triplet is not concealed.
			if ctx.Tsumo || ctx.WinTile.Type() != tile.Type(i) || counts[i] == 4 {
				concealedTrips++
			}
		}
	}
	return trips, concealedTrips, kans
}

func pairType(counts rules.Hand34, melds []rules.Meld) tile.Type {
	for i := 0; i < tile.NumTypes; i++ {
		if counts[i] == 2 {
			return tile.Type(i)
		}
	}
	return -1
}
