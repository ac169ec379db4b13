package game

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mjgo/server/internal/ai"
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/round"
	"github.com/mjgo/server/internal/tile"
)

// Stale or mistimed requests produce soft error events back to the sender;
// the game state does not change. Rule violations a well-behaved client can
// never produce surface as *round.InvalidError and the session layer
// disconnects the offender.

func soft(seat int, code, msg string) []event.Event {
	return []event.Event{event.NewError(seat, code, msg)}
}

// guardTurn rejects actions outside the seat's turn window. Stale timing
// (turn just moved, round just ended) is a soft error; a turn action while a
// call prompt is outstanding is a protocol violation no honest client sends.
func (g *Game) guardTurn(seat int) ([]event.Event, error) {
	switch {
	case g.finished:
		return soft(seat, "GAME_ERROR", "game is over"), nil
	case g.pendingAdvance != nil:
		return soft(seat, "NOT_YOUR_TURN", "round is over, confirm to continue"), nil
	case g.cur.Prompt != nil:
		return nil, &round.InvalidError{Seat: seat, Code: "GAME_ERROR",
			Reason: "turn action while a call prompt is pending"}
	case g.cur.Current != seat:
		return soft(seat, "NOT_YOUR_TURN", "another seat is acting"), nil
	}
	return nil, nil
}

func (g *Game) Discard(seat int, t tile.Tile, declareRiichi bool) ([]event.Event, error) {
	if evs, err := g.guardTurn(seat); evs != nil || err != nil {
		return evs, err
	}
	next, evs, err := g.cur.ProcessDiscard(seat, t, declareRiichi)
	return g.commit(next, evs, err)
}

func (g *Game) Tsumo(seat int) ([]event.Event, error) {
	if evs, err := g.guardTurn(seat); evs != nil || err != nil {
		return evs, err
	}
	next, evs, err := g.cur.ProcessTsumo(seat)
	return g.commit(next, evs, err)
}

func (g *Game) ClosedKan(seat int, t tile.Tile) ([]event.Event, error) {
	if evs, err := g.guardTurn(seat); evs != nil || err != nil {
		return evs, err
	}
	next, evs, err := g.cur.ProcessClosedKan(seat, t)
	return g.commit(next, evs, err)
}

func (g *Game) AddedKan(seat int, t tile.Tile) ([]event.Event, error) {
	if evs, err := g.guardTurn(seat); evs != nil || err != nil {
		return evs, err
	}
	next, evs, err := g.cur.ProcessAddedKan(seat, t)
	return g.commit(next, evs, err)
}

func (g *Game) Kyuushu(seat int) ([]event.Event, error) {
	if evs, err := g.guardTurn(seat); evs != nil || err != nil {
		return evs, err
	}
	next, evs, err := g.cur.ProcessKyuushu(seat)
	return g.commit(next, evs, err)
}

// CallResponse answers the pending prompt for seat.
func (g *Game) CallResponse(seat int, action string, chiPair [2]tile.Tile) ([]event.Event, error) {
	if g.finished || g.pendingAdvance != nil || g.cur.Prompt == nil {
		// The prompt may have resolved while the response was in flight.
		return soft(seat, "NO_PENDING_CALL", "no call prompt is pending"), nil
	}
	next, evs, err := g.cur.HandleCallResponse(round.Response{Seat: seat, Action: action, ChiPair: chiPair})
	return g.commit(next, evs, err)
}

// commit installs the new round state on success and finishes the game
// bookkeeping; machine errors pass through untouched.
func (g *Game) commit(next *round.Round, evs []event.Event, err error) ([]event.Event, error) {
	if err != nil {
		return nil, err
	}
	g.cur = next
	events := g.afterTransition(evs)
	return append(events, g.runSubstitutes()...), nil
}

// Timeout applies the seat's default action when its timer bank empties:
// tsumogiri on its own turn, pass on a prompt, confirm between rounds.
func (g *Game) Timeout(seat int) []event.Event {
	switch {
	case g.finished:
		return nil
	case g.pendingAdvance != nil:
		if g.pendingAdvance[seat] {
			return g.ConfirmAdvance(seat)
		}
		return nil
	case g.cur.Prompt != nil:
		if !g.cur.Prompt.Pending[seat] {
			return nil
		}
		evs, err := g.CallResponse(seat, round.RespPass, [2]tile.Tile{})
		if err != nil {
			g.log.Error("預設過牌失敗", zap.Int("seat", seat), zap.Error(err))
			return nil
		}
		return evs
	case g.cur.Current == seat:
		evs, err := g.Discard(seat, g.defaultDiscard(seat), false)
		if err != nil {
			g.log.Error("預設切牌失敗", zap.Int("seat", seat), zap.Error(err))
			return nil
		}
		return evs
	}
	return nil
}

// defaultDiscard prefers the drawn tile, falling back to the rightmost tile
// not blocked by a kuikae restriction.
func (g *Game) defaultDiscard(seat int) tile.Tile {
	s := g.cur.Seats[seat]
	if s.HasDrawn {
		return s.DrawnTile
	}
	for i := len(s.Concealed) - 1; i >= 0; i-- {
		if !s.ForbiddenDiscards[s.Concealed[i].Type()] {
			return s.Concealed[i]
		}
	}
	return s.Concealed[len(s.Concealed)-1]
}

// SeatAI marks a seat as computer-controlled before the first deal.
func (g *Game) SeatAI(seat int, strategy ai.Strategy) {
	g.players[seat].IsAI = true
	g.strategies[seat] = strategy
}

// ReplaceWithAI hands the seat to a substitute strategy and immediately plays
// out any action the seat owes.
func (g *Game) ReplaceWithAI(seat int, strategy ai.Strategy) []event.Event {
	g.players[seat].IsAI = true
	g.strategies[seat] = strategy
	return g.runSubstitutes()
}

// RestoreHuman returns control of the seat to its reconnected player.
func (g *Game) RestoreHuman(seat int) {
	g.players[seat].IsAI = false
	g.strategies[seat] = nil
}

func (g *Game) strategyFor(seat int) ai.Strategy {
	if s := g.strategies[seat]; s != nil {
		return s
	}
	return ai.Tsumogiri{}
}

// A full hanchan played by four substitutes stays far below this; the bound
// only catches a strategy/machine livelock.
const maxSubstituteSteps = 10000

// runSubstitutes drives every substitute-owed action to quiescence: prompt
// answers, turn actions and advance confirmations.
func (g *Game) runSubstitutes() []event.Event {
	var events []event.Event
	for i := 0; i < maxSubstituteSteps; i++ {
		if g.finished || g.cur == nil {
			break
		}

		if g.pendingAdvance != nil {
			for seat := 0; seat < 4; seat++ {
				if g.players[seat].IsAI && g.pendingAdvance[seat] {
					delete(g.pendingAdvance, seat)
				}
			}
			if len(g.pendingAdvance) == 0 {
				events = append(events, g.startRound()...)
				continue
			}
			break // humans still owe a confirmation
		}

		r := g.cur
		if r.Prompt != nil {
			seat := g.pendingAISeat(r)
			if seat < 0 {
				break
			}
			resp := g.strategyFor(seat).CallResponse(r, seat, r.Prompt.Payload())
			next, evs, err := r.HandleCallResponse(resp)
			if err != nil {
				g.log.Warn("代打回應違規，改為過牌",
					zap.Int("seat", seat), zap.Error(err))
				next, evs, err = r.HandleCallResponse(round.Response{Seat: seat, Action: round.RespPass})
				if err != nil {
					g.log.Error("代打過牌失敗", zap.Int("seat", seat), zap.Error(err))
					break
				}
			}
			g.cur = next
			events = append(events, evs...)
			events = g.afterTransition(events)
			continue
		}

		if r.Phase == round.PhasePlaying && g.players[r.Current].IsAI {
			seat := r.Current
			act := g.strategyFor(seat).Turn(r, seat, r.AvailableActions(seat))
			next, evs, err := g.dispatchTurn(r, seat, act)
			if err != nil {
				g.log.Warn("代打動作違規，改為摸切",
					zap.Int("seat", seat), zap.String("action", act.Action), zap.Error(err))
				next, evs, err = r.ProcessDiscard(seat, g.defaultDiscard(seat), false)
				if err != nil {
					g.log.Error("代打摸切失敗", zap.Int("seat", seat), zap.Error(err))
					break
				}
			}
			g.cur = next
			events = append(events, evs...)
			events = g.afterTransition(events)
			continue
		}
		break
	}
	return events
}

func (g *Game) pendingAISeat(r *round.Round) int {
	for seat := 0; seat < 4; seat++ {
		if g.players[seat].IsAI && r.Prompt.Pending[seat] {
			return seat
		}
	}
	return -1
}

func (g *Game) dispatchTurn(r *round.Round, seat int, act ai.TurnAction) (*round.Round, []event.Event, error) {
	switch act.Action {
	case event.ActDiscard:
		return r.ProcessDiscard(seat, act.Tile, false)
	case event.ActDeclareRiichi:
		return r.ProcessDiscard(seat, act.Tile, true)
	case event.ActDeclareTsumo:
		return r.ProcessTsumo(seat)
	case event.ActCallKanClosed:
		return r.ProcessClosedKan(seat, act.Tile)
	case event.ActCallKanAdded:
		return r.ProcessAddedKan(seat, act.Tile)
	case event.ActCallKyuushu:
		return r.ProcessKyuushu(seat)
	}
	return nil, nil, errors.New("unknown substitute action " + act.Action)
}
