package round

import (
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
)

// ProcessClosedKan declares a concealed kan by the current seat. A kokushi
// tenpai opponent may rob it: a chankan prompt is posted before the kan
// executes.
func (r *Round) ProcessClosedKan(seat int, t tile.Tile) (*Round, []event.Event, error) {
	n := r.Clone()
	s := n.Seats[seat]
	if !s.HasDrawn {
		return nil, nil, invalid(seat, "INVALID_KAN", "closed kan outside own turn")
	}
	if !n.kanAllowed() {
		return nil, nil, invalid(seat, "INVALID_KAN", "kan not allowed by wall or kan count")
	}
	if len(rules.TilesOfType(s.Concealed, t.Type())) != 4 {
		return nil, nil, invalid(seat, "INVALID_KAN", "four matching tiles required")
	}
	if s.Riichi && !rules.RiichiClosedKanOK(s.Concealed, s.Melds, s.DrawnTile, t.Type()) {
		return nil, nil, invalid(seat, "INVALID_KAN", "kan would change the riichi wait")
	}

	// Only kokushi musou may rob a closed kan.
	if callers := n.kokushiRobbers(seat, t); len(callers) > 0 {
		n.Prompt = newPrompt(event.CallChankan, t, seat, callers,
			&pendingKan{Seat: seat, Kind: rules.ClosedKan, Tile: t})
		return n, n.promptEvents(), nil
	}

	evs := n.executeClosedKan(seat, t)
	return n, evs, nil
}

func (r *Round) kokushiRobbers(from int, t tile.Tile) []event.CallerInfo {
	var callers []event.CallerInfo
	for seat := 0; seat < 4; seat++ {
		if seat == from {
			continue
		}
		s := r.Seats[seat]
		if len(s.Melds) > 0 || s.furiten() {
			continue
		}
		h := rules.CountTypes(s.handWithoutDrawn())
		if rules.WaitsInclude(rules.KokushiWaits(h), t.Type()) {
			callers = append(callers, event.CallerInfo{Seat: seat, CanRon: true})
		}
	}
	return callers
}

func (r *Round) executeClosedKan(seat int, t tile.Tile) []event.Event {
	s := r.Seats[seat]
	tiles := rules.TilesOfType(s.Concealed, t.Type())
	for _, x := range tiles {
		s.removeTile(x)
	}
	s.HasDrawn = false
	s.Melds = append(s.Melds, rules.Meld{Kind: rules.ClosedKan, Tiles: tiles, From: -1})
	r.TotalKans++
	r.AnyCallMade = true
	r.clearIppatsuAll()

	events := []event.Event{event.NewBroadcast(event.TypeMeld, event.Meld{
		MeldType:   rules.ClosedKan.String(),
		CallerSeat: seat,
		Tiles:      tiles,
	})}

	if r.Settings.ClosedKanDoraImmediate {
		if ind, ok := r.Wall.RevealDora(); ok {
			events = append(events, event.NewBroadcast(event.TypeDoraRevealed, event.DoraRevealed{Tile: ind}))
		}
	} else {
		r.Wall.DeferDora()
	}
	return append(events, r.drawRinshan(seat)...)
}

// ProcessAddedKan upgrades an existing pon with the fourth copy from hand.
// Any opponent who can win on the added tile robs it (chankan); the prompt is
// posted before the kan applies.
func (r *Round) ProcessAddedKan(seat int, t tile.Tile) (*Round, []event.Event, error) {
	n := r.Clone()
	s := n.Seats[seat]
	if !s.HasDrawn {
		return nil, nil, invalid(seat, "INVALID_KAN", "added kan outside own turn")
	}
	if !n.kanAllowed() {
		return nil, nil, invalid(seat, "INVALID_KAN", "kan not allowed by wall or kan count")
	}
	if !s.Holds(t) || !hasPonOf(s, t.Type()) {
		return nil, nil, invalid(seat, "INVALID_KAN", "no matching pon for added kan")
	}

	if ron := n.ronCallers(seat, t, true); len(ron) > 0 {
		callers := make([]event.CallerInfo, 0, len(ron))
		for _, c := range ron {
			callers = append(callers, event.CallerInfo{Seat: c, CanRon: true})
		}
		n.Prompt = newPrompt(event.CallChankan, t, seat, callers,
			&pendingKan{Seat: seat, Kind: rules.AddedKan, Tile: t})
		return n, n.promptEvents(), nil
	}

	evs := n.executeAddedKan(seat, t)
	return n, evs, nil
}

func hasPonOf(s *SeatState, tt tile.Type) bool {
	for _, m := range s.Melds {
		if m.Kind == rules.Pon && m.Type() == tt {
			return true
		}
	}
	return false
}

func (r *Round) executeAddedKan(seat int, t tile.Tile) []event.Event {
	s := r.Seats[seat]
	s.removeTile(t)
	s.HasDrawn = false
	for i := range s.Melds {
		if s.Melds[i].Kind == rules.Pon && s.Melds[i].Type() == t.Type() {
			s.Melds[i].Kind = rules.AddedKan
			s.Melds[i].Tiles = append(s.Melds[i].Tiles, t)
			break
		}
	}
	r.TotalKans++
	r.AnyCallMade = true
	r.clearIppatsuAll()

	called := t
	events := []event.Event{event.NewBroadcast(event.TypeMeld, event.Meld{
		MeldType:   rules.AddedKan.String(),
		CallerSeat: seat,
		Tiles:      meldTiles(s, t.Type()),
		CalledTile: &called,
	})}
	// Open/added kan dora is deferred until the replacement discard survives.
	r.Wall.DeferDora()
	return append(events, r.drawRinshan(seat)...)
}

func meldTiles(s *SeatState, tt tile.Type) []tile.Tile {
	for _, m := range s.Melds {
		if m.Type() == tt && m.Kind.IsKan() {
			return m.Tiles
		}
	}
	return nil
}

// drawRinshan gives the kan declarer the dead-wall replacement tile.
func (r *Round) drawRinshan(seat int) []event.Event {
	s := r.Seats[seat]
	t, ok := r.Wall.DrawRinshan()
	if !ok {
		// kanAllowed guards the live wall; reaching here is a defect.
		return nil
	}
	s.Concealed = append(s.Concealed, t)
	s.DrawnTile = t
	s.HasDrawn = true
	s.Rinshan = true
	r.Current = seat
	return []event.Event{event.NewBroadcast(event.TypeDraw, event.Draw{
		Seat:             seat,
		Tile:             t,
		WallRemaining:    r.Wall.Remaining(),
		AvailableActions: r.availableActions(seat),
	})}
}
