package round

import (
	"sort"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
)

// Call response action names.
const (
	RespRon  = "ron"
	RespPon  = "pon"
	RespChi  = "chi"
	RespKan  = "kan"
	RespPass = "pass"
)

// HandleCallResponse records one seat's answer to the pending prompt. The
// prompt resolves once every pending seat has answered; until then the state
// advances without events.
func (r *Round) HandleCallResponse(resp Response) (*Round, []event.Event, error) {
	n := r.Clone()
	p := n.Prompt
	if p == nil {
		return nil, nil, invalid(resp.Seat, "GAME_ERROR", "no pending call prompt")
	}
	if !p.Pending[resp.Seat] {
		return nil, nil, invalid(resp.Seat, "GAME_ERROR", "responder not in pending seats")
	}
	c := p.caller(resp.Seat)

	switch resp.Action {
	case RespPass:
	case RespRon:
		if !c.CanRon {
			return nil, nil, invalid(resp.Seat, "INVALID_RON", "ron not offered to this seat")
		}
	case RespPon:
		if !c.CanPon {
			return nil, nil, invalid(resp.Seat, "INVALID_PON", "pon not offered to this seat")
		}
	case RespKan:
		if !c.CanKan {
			return nil, nil, invalid(resp.Seat, "INVALID_KAN", "kan not offered to this seat")
		}
	case RespChi:
		if !chiPairOffered(c, resp.ChiPair) {
			return nil, nil, invalid(resp.Seat, "INVALID_CHI", "chi pair not offered to this seat")
		}
	default:
		return nil, nil, invalid(resp.Seat, "GAME_ERROR", "unknown call response")
	}

	delete(p.Pending, resp.Seat)
	p.Responses = append(p.Responses, resp)
	if len(p.Pending) > 0 {
		return n, nil, nil
	}
	return n.resolvePrompt()
}

func chiPairOffered(c *event.CallerInfo, pair [2]tile.Tile) bool {
	for _, o := range c.ChiOptions {
		if o == pair || (o[0] == pair[1] && o[1] == pair[0]) {
			return true
		}
	}
	return false
}

// resolvePrompt applies the priority table: ron beats everything, then
// kan > pon > chi. All-pass either completes a suspended kan (chankan window)
// or advances the turn.
func (r *Round) resolvePrompt() (*Round, []event.Event, error) {
	p := r.Prompt

	var rons []int
	var meldResp *Response
	for i := range p.Responses {
		resp := &p.Responses[i]
		switch resp.Action {
		case RespRon:
			rons = append(rons, resp.Seat)
		case RespKan, RespPon, RespChi:
			if meldResp == nil || meldRank(resp.Action) > meldRank(meldResp.Action) {
				meldResp = resp
			}
		}
	}

	if len(rons) > 0 {
		// Counter-clockwise from the discarder, closest first.
		sort.Slice(rons, func(i, j int) bool {
			return (rons[i]-p.FromSeat+4)%4 < (rons[j]-p.FromSeat+4)%4
		})
		if r.Settings.TripleRonAborts && len(rons) >= 3 {
			n, evs := r.finishAbort(event.AbortTripleRon)
			return n, evs, nil
		}
		loser := p.FromSeat
		chankan := p.CallType == event.CallChankan
		evs := r.finishRonWins(rons, loser, p.Tile, chankan)
		return r, evs, nil
	}

	if p.Kan != nil {
		return r.resolveChankanPass()
	}

	if meldResp != nil {
		return r.applyCalledMeld(*meldResp)
	}

	// All pass: a riichi seat that let its winning tile go is furiten for the
	// rest of the round.
	var events []event.Event
	for _, c := range p.Callers {
		if !c.CanRon {
			continue
		}
		s := r.Seats[c.Seat]
		if s.Riichi && !s.RiichiFuriten {
			s.RiichiFuriten = true
			events = append(events, event.NewSeat(event.TypeFuriten, c.Seat, event.Furiten{IsFuriten: true}))
		}
	}
	from, t := p.FromSeat, p.Tile
	r.Prompt = nil
	n, evs := r.advanceAfterDiscard(from, t)
	return n, append(events, evs...), nil
}

func meldRank(action string) int {
	switch action {
	case RespKan:
		return 3
	case RespPon:
		return 2
	case RespChi:
		return 1
	}
	return 0
}

// resolveChankanPass completes the kan that was suspended behind the robbery
// window. Passers who could have ronned become furiten.
func (r *Round) resolveChankanPass() (*Round, []event.Event, error) {
	p := r.Prompt
	var events []event.Event
	for _, c := range p.Callers {
		s := r.Seats[c.Seat]
		if s.Riichi {
			if !s.RiichiFuriten {
				s.RiichiFuriten = true
				events = append(events, event.NewSeat(event.TypeFuriten, c.Seat, event.Furiten{IsFuriten: true}))
			}
		} else {
			s.TemporaryFuriten = true
		}
	}

	kan := *p.Kan
	r.Prompt = nil
	switch kan.Kind {
	case rules.ClosedKan:
		events = append(events, r.executeClosedKan(kan.Seat, kan.Tile)...)
	case rules.AddedKan:
		events = append(events, r.executeAddedKan(kan.Seat, kan.Tile)...)
	}
	return r, events, nil
}

// applyCalledMeld executes the winning meld claim: the discard moves into the
// caller's meld area and the caller becomes the acting seat.
func (r *Round) applyCalledMeld(resp Response) (*Round, []event.Event, error) {
	p := r.Prompt
	caller, from, t := resp.Seat, p.FromSeat, p.Tile
	s := r.Seats[caller]
	d := r.Seats[from]

	var events []event.Event

	// A riichi declaration stands even when its discard is claimed; only the
	// one-shot window dies.
	events = append(events, r.finalizePendingRiichi(from)...)
	r.clearIppatsuAll()
	r.AnyCallMade = true
	d.DiscardsClaimed = true
	if len(d.Discards) > 0 {
		d.Discards = d.Discards[:len(d.Discards)-1]
	}
	r.Prompt = nil

	fromPtr := from
	called := t
	switch resp.Action {
	case RespPon:
		taken := rules.TilesOfType(s.Concealed, t.Type())
		if len(taken) < 2 {
			return nil, nil, invalid(caller, "INVALID_PON", "pon tiles no longer in hand")
		}
		taken = taken[:2]
		for _, x := range taken {
			s.removeTile(x)
		}
		m := rules.Meld{Kind: rules.Pon, Tiles: append(taken, t), Called: t, From: from}
		s.Melds = append(s.Melds, m)
		s.ForbiddenDiscards = map[tile.Type]bool{t.Type(): true}
		r.checkPao(caller, from, t.Type())
		events = append(events, event.NewBroadcast(event.TypeMeld, event.Meld{
			MeldType: rules.Pon.String(), CallerSeat: caller, Tiles: m.Tiles,
			FromSeat: &fromPtr, CalledTile: &called,
		}))

	case RespKan:
		taken := rules.TilesOfType(s.Concealed, t.Type())
		if len(taken) < 3 {
			return nil, nil, invalid(caller, "INVALID_KAN", "kan tiles no longer in hand")
		}
		for _, x := range taken {
			s.removeTile(x)
		}
		m := rules.Meld{Kind: rules.OpenKan, Tiles: append(taken, t), Called: t, From: from}
		s.Melds = append(s.Melds, m)
		r.TotalKans++
		r.checkPao(caller, from, t.Type())
		r.Wall.DeferDora()
		events = append(events, event.NewBroadcast(event.TypeMeld, event.Meld{
			MeldType: rules.OpenKan.String(), CallerSeat: caller, Tiles: m.Tiles,
			FromSeat: &fromPtr, CalledTile: &called,
		}))
		events = append(events, r.drawRinshan(caller)...)
		r.AfterMeldCall = false
		return r, events, nil

	case RespChi:
		if !rules.ValidChiPair(s.Concealed, t, resp.ChiPair) {
			return nil, nil, invalid(caller, "INVALID_CHI", "chi tiles no longer form a run")
		}
		s.removeTile(resp.ChiPair[0])
		s.removeTile(resp.ChiPair[1])
		m := rules.Meld{Kind: rules.Chi, Tiles: []tile.Tile{resp.ChiPair[0], resp.ChiPair[1], t}, Called: t, From: from}
		s.Melds = append(s.Melds, m)
		s.ForbiddenDiscards = chiForbidden(resp.ChiPair, t)
		events = append(events, event.NewBroadcast(event.TypeMeld, event.Meld{
			MeldType: rules.Chi.String(), CallerSeat: caller, Tiles: m.Tiles,
			FromSeat: &fromPtr, CalledTile: &called,
		}))
	}

	r.Current = caller
	r.AfterMeldCall = true
	events = append(events, event.NewBroadcast(event.TypeTurn, event.Turn{Seat: caller}))
	return r, events, nil
}

// chiForbidden is the kuikae set: the called type always, plus the far suji
// end when the pair sits on one side of the called tile.
func chiForbidden(pair [2]tile.Tile, t tile.Tile) map[tile.Type]bool {
	out := map[tile.Type]bool{t.Type(): true}
	a, b := pair[0].Type(), pair[1].Type()
	if a > b {
		a, b = b, a
	}
	tt := t.Type()
	switch {
	case b == tt-1 && a == tt-2: // held n-2,n-1, called n: n-3 also dead
		if tt.Number() >= 4 {
			out[tt-3] = true
		}
	case a == tt+1 && b == tt+2: // held n+1,n+2, called n: n+3 also dead
		if tt.Number() <= 6 {
			out[tt+3] = true
		}
	}
	return out
}

// checkPao marks the discarder liable when the claim hands out the third
// dragon set (daisangen) or the fourth wind set (daisuushii).
func (r *Round) checkPao(caller, from int, tt tile.Type) {
	s := r.Seats[caller]
	if tt >= tile.Haku && tt <= tile.Chun {
		dragons := 0
		for _, m := range s.Melds {
			if m.Kind != rules.Chi && m.Type() >= tile.Haku {
				dragons++
			}
		}
		if dragons == 3 {
			s.PaoSeat = from
		}
	}
	if tt >= tile.East && tt <= tile.North {
		winds := 0
		for _, m := range s.Melds {
			if m.Kind != rules.Chi && m.Type() >= tile.East && m.Type() <= tile.North {
				winds++
			}
		}
		if winds == 4 {
			s.PaoSeat = from
		}
	}
}
