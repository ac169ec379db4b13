package score

// Point transfer schedules. All deltas are in points (not centi-points) and
// sum to zero before riichi-stick payouts, which move previously escrowed
// points onto the table winner.

const (
	RiichiStickValue = 1000
	HonbaValue       = 300 // per honba on a ron/tsumo win, split 100 each on tsumo
	NotenPenalty     = 3000
)

// basePoints is fu × 2^(2+han) capped by the limit-hand table.
func basePoints(v HandValue) int {
	if v.Yakuman > 0 {
		return 8000 * v.Yakuman
	}
	switch {
	case v.Han >= 11:
		return 6000 // sanbaiman
	case v.Han >= 8:
		return 4000 // baiman
	case v.Han >= 6:
		return 3000 // haneman
	case v.Han >= 5:
		return 2000 // mangan
	}
	base := v.Fu * (1 << (2 + uint(v.Han)))
	if base > 2000 {
		base = 2000 // kiriage to mangan
	}
	return base
}

func roundUp100(n int) int { return (n + 99) / 100 * 100 }

// RonDeltas computes the four seat deltas for a ron win. Honba is paid to
// every ron winner in full; headBonus controls only the riichi-stick payout
// (the counter-clockwise-closest winner of a double ron). paoSeat splits the
// liability when >= 0.
func RonDeltas(v HandValue, winner, loser, dealer, honba, riichiSticks int, headBonus bool, paoSeat int) [4]int {
	var d [4]int
	base := basePoints(v)
	total := roundUp100(base * 4)
	if winner == dealer {
		total = roundUp100(base * 6)
	}

	if paoSeat >= 0 && v.Yakuman > 0 && paoSeat != loser {
		half := roundUp100(total / 2)
		d[loser] -= half
		d[paoSeat] -= total - half
	} else {
		d[loser] -= total
	}
	d[winner] += total

	d[winner] += honba * HonbaValue
	d[loser] -= honba * HonbaValue
	if headBonus {
		d[winner] += riichiSticks * RiichiStickValue
	}
	return d
}

// TsumoDeltas computes the four seat deltas for a self-drawn win.
func TsumoDeltas(v HandValue, winner, dealer, honba, riichiSticks int, paoSeat int) [4]int {
	var d [4]int
	base := basePoints(v)

	if paoSeat >= 0 && v.Yakuman > 0 {
		// Pao on tsumo: the liable seat pays the whole ron-equivalent amount.
		total := roundUp100(base * 4)
		if winner == dealer {
			total = roundUp100(base * 6)
		}
		total += honba * HonbaValue
		d[paoSeat] -= total
		d[winner] += total
		d[winner] += riichiSticks * RiichiStickValue
		return d
	}

	for s := 0; s < 4; s++ {
		if s == winner {
			continue
		}
		var pay int
		switch {
		case winner == dealer:
			pay = roundUp100(base * 2)
		case s == dealer:
			pay = roundUp100(base * 2)
		default:
			pay = roundUp100(base)
		}
		pay += honba * 100
		d[s] -= pay
		d[winner] += pay
	}
	d[winner] += riichiSticks * RiichiStickValue
	return d
}

// ExhaustiveDrawDeltas pays the noten penalty: 3000 moves from noten to
// tenpai seats, split evenly. All-tenpai and all-noten move nothing.
func ExhaustiveDrawDeltas(tenpai [4]bool) [4]int {
	var d [4]int
	n := 0
	for _, t := range tenpai {
		if t {
			n++
		}
	}
	if n == 0 || n == 4 {
		return d
	}
	for s := 0; s < 4; s++ {
		if tenpai[s] {
			d[s] += NotenPenalty / n
		} else {
			d[s] -= NotenPenalty / (4 - n)
		}
	}
	return d
}

// NagashiDeltas pays a nagashi-mangan seat as a mangan tsumo. Multiple
// qualifying seats are paid in seat order, deltas accumulated.
func NagashiDeltas(seats []int, dealer int) [4]int {
	var d [4]int
	for _, w := range seats {
		for s := 0; s < 4; s++ {
			if s == w {
				continue
			}
			var pay int
			switch {
			case w == dealer:
				pay = 4000
			case s == dealer:
				pay = 4000
			default:
				pay = 2000
			}
			d[s] -= pay
			d[w] += pay
		}
	}
	return d
}
