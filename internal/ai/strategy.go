// Package ai provides decision strategies for substitute-controlled seats.
// Strategies are pure with respect to the round state: they pick an action,
// the game layer applies it.
package ai

import (
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/round"
	"github.com/mjgo/server/internal/tile"
)

// TurnAction is a substitute's decision on its own turn.
type TurnAction struct {
	Action string // event.ActDiscard, ActDeclareTsumo, ...
	Tile   tile.Tile
}

// Strategy decides for one seat. Implementations must not retain r.
type Strategy interface {
	Turn(r *round.Round, seat int, actions []event.AvailableAction) TurnAction
	CallResponse(r *round.Round, seat int, prompt event.CallPrompt) round.Response
}

// Tsumogiri is the baseline substitute: discard the drawn tile, decline every
// call. It wins by tsumo when offered, so a substituted seat cannot be forced
// to throw away a finished hand.
type Tsumogiri struct{}

func (Tsumogiri) Turn(r *round.Round, seat int, actions []event.AvailableAction) TurnAction {
	for _, a := range actions {
		if a.Action == event.ActDeclareTsumo {
			return TurnAction{Action: event.ActDeclareTsumo}
		}
	}
	return TurnAction{Action: event.ActDiscard, Tile: fallbackDiscard(r, seat)}
}

func (Tsumogiri) CallResponse(_ *round.Round, seat int, _ event.CallPrompt) round.Response {
	return round.Response{Seat: seat, Action: round.RespPass}
}

// fallbackDiscard is the drawn tile, or the rightmost concealed tile when the
// seat acts without drawing (after a pon/chi).
func fallbackDiscard(r *round.Round, seat int) tile.Tile {
	s := r.Seats[seat]
	if s.HasDrawn {
		return s.DrawnTile
	}
	return s.Concealed[len(s.Concealed)-1]
}
