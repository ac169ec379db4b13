package round

import (
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/score"
	"github.com/mjgo/server/internal/tile"
)

// ProcessTsumo declares a self-drawn win by the current seat.
func (r *Round) ProcessTsumo(seat int) (*Round, []event.Event, error) {
	n := r.Clone()
	s := n.Seats[seat]
	if !s.HasDrawn {
		return nil, nil, invalid(seat, "GAME_ERROR", "tsumo without a drawn tile")
	}
	v, err := score.Evaluate(s.handWithoutDrawn(), s.Melds, n.winContext(seat, s.DrawnTile, true, false))
	if err != nil {
		return nil, nil, invalid(seat, "GAME_ERROR", "tsumo on an incomplete or yakuless hand")
	}

	deltas := score.TsumoDeltas(v, seat, n.Dealer, n.Honba, n.RiichiSticks, s.PaoSeat)
	n.RiichiSticks = 0

	detail := n.winDetail(seat, s.DrawnTile, v)
	evs := n.finish(event.RoundEnd{
		Result:       event.ResultTsumo,
		Winners:      []event.WinDetail{detail},
		Deltas:       deltas,
		DealerRepeat: seat == n.Dealer,
	})
	return n, evs, nil
}

// ProcessKyuushu aborts the round on nine distinct terminals/honors at the
// seat's first draw.
func (r *Round) ProcessKyuushu(seat int) (*Round, []event.Event, error) {
	n := r.Clone()
	s := n.Seats[seat]
	if !n.Settings.KyuushuEnabled || len(s.Discards) > 0 || !n.firstGoAround() ||
		!rules.CanKyuushu(s.Concealed) {
		return nil, nil, invalid(seat, "CANNOT_CALL_KYUUSHU", "kyuushu conditions not met")
	}
	n2, evs := n.finishAbort(event.AbortKyuushu)
	return n2, evs, nil
}

// finishRonWins ends the round on one or two ron winners. Winners must be
// ordered counter-clockwise from the discarder (closest first); the head
// bonus riichi sticks go to the first.
func (r *Round) finishRonWins(winners []int, loser int, t tile.Tile, chankan bool) []event.Event {
	result := event.ResultRon
	if len(winners) == 2 {
		result = event.ResultDoubleRon
	}

	var total [4]int
	var details []event.WinDetail
	for i, w := range winners {
		v, err := score.Evaluate(r.Seats[w].Concealed, r.Seats[w].Melds, r.winContext(w, t, false, chankan))
		if err != nil {
			// Callers verified ron eligibility; a failure here is a defect.
			continue
		}
		d := score.RonDeltas(v, w, loser, r.Dealer, r.Honba, r.RiichiSticks, i == 0, r.Seats[w].PaoSeat)
		for s := 0; s < 4; s++ {
			total[s] += d[s]
		}
		details = append(details, r.winDetail(w, t, v))
	}
	r.RiichiSticks = 0

	dealerWon := false
	for _, w := range winners {
		if w == r.Dealer {
			dealerWon = true
		}
	}
	l := loser
	return r.finish(event.RoundEnd{
		Result:       result,
		Winners:      details,
		LoserSeat:    &l,
		Deltas:       total,
		DealerRepeat: dealerWon,
	})
}

func (r *Round) winDetail(seat int, t tile.Tile, v score.HandValue) event.WinDetail {
	s := r.Seats[seat]
	hand := append([]tile.Tile(nil), s.Concealed...)
	if !s.HasDrawn {
		hand = append(hand, t)
	}
	d := event.WinDetail{Seat: seat, Value: v, Hand: hand, WinTile: t}
	if s.Riichi {
		d.UraShown = r.Wall.UraIndicators()
	}
	return d
}

// finishExhaustive ends the round when the live wall runs out: tenpai/noten
// payments, or the nagashi-mangan schedule when a seat qualifies.
func (r *Round) finishExhaustive() (*Round, []event.Event) {
	var tenpai [4]bool
	var tenpaiSeats []int
	for i, s := range r.Seats {
		if rules.IsTenpai(rules.CountTypes(s.handWithoutDrawn()), len(s.Melds)) {
			tenpai[i] = true
			tenpaiSeats = append(tenpaiSeats, i)
		}
	}

	var nagashi []int
	if r.Settings.NagashiMangan {
		for i, s := range r.Seats {
			if s.DiscardsClaimed || len(s.Discards) == 0 {
				continue
			}
			all := true
			for _, d := range s.Discards {
				if !d.Tile.Type().IsYaochuu() {
					all = false
					break
				}
			}
			if all {
				nagashi = append(nagashi, i)
			}
		}
	}

	var deltas [4]int
	result := event.ResultExhaustiveDraw
	if len(nagashi) > 0 {
		result = event.ResultNagashiMangan
		deltas = score.NagashiDeltas(nagashi, r.Dealer)
	} else {
		deltas = score.ExhaustiveDrawDeltas(tenpai)
	}

	evs := r.finish(event.RoundEnd{
		Result:       result,
		TenpaiSeats:  tenpaiSeats,
		NagashiSeats: nagashi,
		Deltas:       deltas,
		DealerRepeat: tenpai[r.Dealer],
	})
	return r, evs
}

// finishAbort ends the round without payments; the dealer always repeats.
func (r *Round) finishAbort(reason string) (*Round, []event.Event) {
	evs := r.finish(event.RoundEnd{
		Result:       event.ResultAbortiveDraw,
		AbortReason:  reason,
		DealerRepeat: true,
	})
	return r, evs
}

// finish applies deltas to seat scores, records the result and emits RoundEnd.
func (r *Round) finish(res event.RoundEnd) []event.Event {
	for i, s := range r.Seats {
		s.Score += res.Deltas[i]
		res.Scores[i] = s.Score
	}
	r.Phase = PhaseFinished
	r.Prompt = nil
	r.Result = &res
	return []event.Event{event.NewBroadcast(event.TypeRoundEnd, res)}
}
