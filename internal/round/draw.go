package round

import (
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/score"
	"github.com/mjgo/server/internal/tile"
)

// ProcessDraw executes the draw phase for the current seat: either the round
// ends exhausted, or the seat receives the head of the live wall together
// with its available actions.
func (r *Round) ProcessDraw() (*Round, []event.Event) {
	n := r.Clone()
	if n.Wall.Remaining() == 0 {
		return n.finishExhaustive()
	}

	seat := n.Current
	s := n.Seats[seat]
	t, _ := n.Wall.Draw()
	s.Concealed = append(s.Concealed, t)
	s.DrawnTile = t
	s.HasDrawn = true
	s.TemporaryFuriten = false // own draw starts a fresh turn

	ev := event.Event{
		Type:   event.TypeDraw,
		Target: event.Broadcast,
		Data: event.Draw{
			Seat:             seat,
			Tile:             t,
			WallRemaining:    n.Wall.Remaining(),
			AvailableActions: n.availableActions(seat),
		},
	}
	return n, []event.Event{ev}
}

// AvailableActions recomputes the acting seat's options; the game layer uses
// it for substitutes and reconnection snapshots.
func (r *Round) AvailableActions(seat int) []event.AvailableAction {
	return r.availableActions(seat)
}

// availableActions computes the drawn seat's options.
func (r *Round) availableActions(seat int) []event.AvailableAction {
	s := r.Seats[seat]
	acts := []event.AvailableAction{{Action: event.ActDiscard}}

	if r.canTsumo(seat) {
		acts = append(acts, event.AvailableAction{Action: event.ActDeclareTsumo})
	}

	if r.Settings.KyuushuEnabled && len(s.Discards) == 0 && r.firstGoAround() &&
		rules.CanKyuushu(s.Concealed) {
		acts = append(acts, event.AvailableAction{Action: event.ActCallKyuushu})
	}

	if r.kanAllowed() {
		if ts := r.closedKanTiles(seat); len(ts) > 0 {
			acts = append(acts, event.AvailableAction{Action: event.ActCallKanClosed, Tiles: ts})
		}
		if !s.Riichi {
			if ts := addedKanTiles(s); len(ts) > 0 {
				acts = append(acts, event.AvailableAction{Action: event.ActCallKanAdded, Tiles: ts})
			}
		}
	}

	if !s.Riichi && r.Wall.Remaining() >= 4 &&
		(!r.Settings.RiichiRequiresPoints || s.Score >= score.RiichiStickValue) {
		if opts := rules.RiichiOptions(s.Concealed, s.Melds); len(opts) > 0 {
			tiles := make([]tile.Tile, 0, len(opts))
			for _, o := range opts {
				tiles = append(tiles, o.Discard)
			}
			acts = append(acts, event.AvailableAction{Action: event.ActDeclareRiichi, Tiles: tiles})
		}
	}
	return acts
}

func (r *Round) kanAllowed() bool {
	return r.Wall.Remaining() >= r.Settings.MinWallForKan && r.TotalKans < r.Settings.MaxKans
}

func (r *Round) closedKanTiles(seat int) []tile.Tile {
	s := r.Seats[seat]
	var out []tile.Tile
	for _, tt := range rules.ClosedKanTypes(s.Concealed) {
		if s.Riichi && !rules.RiichiClosedKanOK(s.Concealed, s.Melds, s.DrawnTile, tt) {
			continue
		}
		out = append(out, rules.TilesOfType(s.Concealed, tt)[0])
	}
	return out
}

func addedKanTiles(s *SeatState) []tile.Tile {
	var out []tile.Tile
	for _, tt := range rules.AddedKanTypes(s.Concealed, s.Melds) {
		out = append(out, rules.TilesOfType(s.Concealed, tt)[0])
	}
	return out
}

// canTsumo requires a complete hand with at least one yaku.
func (r *Round) canTsumo(seat int) bool {
	s := r.Seats[seat]
	if !s.HasDrawn {
		return false
	}
	_, err := score.Evaluate(s.handWithoutDrawn(), s.Melds, r.winContext(seat, s.DrawnTile, true, false))
	return err == nil
}

// winContext assembles the scoring context for a win by seat on t.
func (r *Round) winContext(seat int, t tile.Tile, tsumo, chankan bool) score.Context {
	s := r.Seats[seat]
	return score.Context{
		Seat:           seat,
		Dealer:         r.Dealer,
		RoundWind:      tile.WindType(r.Wind),
		SeatWind:       r.SeatWind(seat),
		Tsumo:          tsumo,
		WinTile:        t,
		Riichi:         s.Riichi,
		DoubleRiichi:   s.DoubleRiichi,
		Ippatsu:        s.Ippatsu,
		Chankan:        chankan,
		Rinshan:        tsumo && s.Rinshan,
		Haitei:         tsumo && r.Wall.Remaining() == 0,
		Houtei:         !tsumo && !chankan && r.Wall.Remaining() == 0,
		DoraIndicators: r.Wall.DoraIndicators(),
		UraIndicators:  r.Wall.UraIndicators(),
		UseRedFives:    r.Settings.UseRedFives,
	}
}
