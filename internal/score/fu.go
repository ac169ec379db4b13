package score

import "github.com/mjgo/server/internal/tile"

// computeFu follows the standard schedule: 20 base, +10 closed ron, +2 tsumo
// (except pinfu), meld fu, pair fu, wait fu, rounded up to 10. Chiitoi is a
// flat 25.
func computeFu(groups []Group, chiitoi, closed bool, yaku []YakuHan, ctx Context) int {
	if chiitoi {
		return 25
	}
	pinfu := false
	for _, y := range yaku {
		if y.Name == "pinfu" {
			pinfu = true
		}
	}
	if pinfu {
		if ctx.Tsumo {
			return 20
		}
		return 30
	}

	fu := 20
	if closed && !ctx.Tsumo {
		fu += 10
	}
	if ctx.Tsumo {
		fu += 2
	}

	for _, g := range groups {
		switch g.Kind {
		case GroupTriplet:
			f := 2
			if g.Concealed {
				f = 4
			}
			if g.T.IsYaochuu() {
				f *= 2
			}
			fu += f
		case GroupKan:
			f := 8
			if g.Concealed {
				f = 16
			}
			if g.T.IsYaochuu() {
				f *= 2
			}
			fu += f
		case GroupPair:
			if g.T >= tile.Haku {
				fu += 2
			}
			if g.T == ctx.RoundWind {
				fu += 2
			}
			if g.T == ctx.SeatWind {
				fu += 2
			}
		}
	}

	fu += waitFu(groups, ctx.WinTile.Type())

	// Open pinfu-shaped ron still pays at least 30.
	if fu < 30 && !ctx.Tsumo {
		fu = 30
	}
	return (fu + 9) / 10 * 10
}

// waitFu: kanchan (closed wait), penchan (edge wait) and tanki (pair wait)
// add 2; ryanmen and shanpon add nothing.
func waitFu(groups []Group, winT tile.Type) int {
	for _, g := range groups {
		if !g.HasWin {
			continue
		}
		switch g.Kind {
		case GroupPair:
			return 2
		case GroupRun:
			if winT == g.T+1 {
				return 2 // kanchan
			}
			if winT == g.T+2 && g.T.Number() == 1 {
				return 2 // penchan 1-2 waiting 3
			}
			if winT == g.T && g.T.Number() == 7 {
				return 2 // penchan 8-9 waiting 7
			}
		}
		return 0
	}
	return 0
}
