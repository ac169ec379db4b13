package round

import (
	"fmt"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/score"
	"github.com/mjgo/server/internal/tile"
)

// InvalidError marks a hard protocol/rule violation that a well-behaved
// client cannot produce. The session layer disconnects the offender.
type InvalidError struct {
	Seat   int
	Code   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid action by seat %d: %s (%s)", e.Seat, e.Code, e.Reason)
}

func invalid(seat int, code, reason string) error {
	return &InvalidError{Seat: seat, Code: code, Reason: reason}
}

// ProcessDiscard handles a discard (optionally declaring riichi) by the
// current seat and runs the full post-discard pipeline: four-winds check, ron
// and meld caller computation, prompt construction or turn advance.
func (r *Round) ProcessDiscard(seat int, t tile.Tile, declareRiichi bool) (*Round, []event.Event, error) {
	n := r.Clone()
	s := n.Seats[seat]

	if !t.Valid() || !s.Holds(t) {
		return nil, nil, invalid(seat, "INVALID_DISCARD", "tile not in hand")
	}
	if s.ForbiddenDiscards[t.Type()] {
		return nil, nil, invalid(seat, "INVALID_DISCARD", "kuikae")
	}
	if s.Riichi && s.HasDrawn && t != s.DrawnTile {
		return nil, nil, invalid(seat, "INVALID_DISCARD", "riichi hand is locked")
	}
	if declareRiichi {
		if err := n.validateRiichi(seat, t); err != nil {
			return nil, nil, err
		}
	}

	isTsumogiri := s.HasDrawn && t == s.DrawnTile
	s.removeTile(t)
	s.Discards = append(s.Discards, Discard{Tile: t, IsTsumogiri: isTsumogiri, IsRiichi: declareRiichi})
	s.HasDrawn = false
	s.Rinshan = false
	s.ForbiddenDiscards = nil
	if declareRiichi {
		s.PendingRiichi = true
		s.PendingDoubleRiichi = n.firstGoAround() && len(s.Discards) == 1
	} else if s.Ippatsu {
		// The riichi seat's next discard ends the one-shot window.
		s.Ippatsu = false
	}

	events := []event.Event{{
		Type:   event.TypeDiscard,
		Target: event.Broadcast,
		Data:   event.Discard{Seat: seat, Tile: t, IsTsumogiri: isTsumogiri, IsRiichi: declareRiichi},
	}}

	if n.fourWindsTriggered() {
		n2, evs := n.finishAbort(event.AbortFourWinds)
		return n2, append(events, evs...), nil
	}

	ronSeats := n.ronCallers(seat, t, false)
	events = append(events, n.markRiichiFuriten(seat, t, ronSeats)...)

	if n.Settings.TripleRonAborts && len(ronSeats) >= 3 {
		n2, evs := n.finishAbort(event.AbortTripleRon)
		return n2, append(events, evs...), nil
	}

	callers := n.buildCallers(seat, t, ronSeats)
	if len(callers) > 0 {
		callType := event.CallMeld
		for _, c := range callers {
			if c.CanRon {
				callType = event.CallRon
			}
		}
		n.Prompt = newPrompt(callType, t, seat, callers, nil)
		events = append(events, n.promptEvents()...)
		return n, events, nil
	}

	n2, evs := n.advanceAfterDiscard(seat, t)
	return n2, append(events, evs...), nil
}

func newPrompt(callType string, t tile.Tile, from int, callers []event.CallerInfo, kan *pendingKan) *Prompt {
	p := &Prompt{
		CallType: callType,
		Tile:     t,
		FromSeat: from,
		Pending:  make(map[int]bool, len(callers)),
		Callers:  callers,
		Kan:      kan,
	}
	for _, c := range callers {
		p.Pending[c.Seat] = true
	}
	return p
}

// promptEvents emits the unified prompt to every pending seat.
func (r *Round) promptEvents() []event.Event {
	p := r.Prompt
	var evs []event.Event
	for _, c := range p.Callers {
		evs = append(evs, event.Event{
			Type:   event.TypeCallPrompt,
			Target: c.Seat,
			Data: event.CallPrompt{
				CallType: p.CallType,
				Tile:     p.Tile,
				FromSeat: p.FromSeat,
				Callers:  p.Callers,
			},
		})
	}
	return evs
}

func (r *Round) validateRiichi(seat int, t tile.Tile) error {
	s := r.Seats[seat]
	if s.Riichi || s.PendingRiichi {
		return invalid(seat, "INVALID_RIICHI", "already in riichi")
	}
	if r.Settings.RiichiRequiresPoints && s.Score < score.RiichiStickValue {
		return invalid(seat, "INVALID_RIICHI", "insufficient points")
	}
	if r.Wall.Remaining() < 4 {
		return invalid(seat, "INVALID_RIICHI", "wall too short")
	}
	for _, o := range rules.RiichiOptions(s.Concealed, s.Melds) {
		if o.Discard.Type() == t.Type() {
			return nil
		}
	}
	return invalid(seat, "INVALID_RIICHI", "discard does not keep tenpai")
}

// ronCallers finds every seat that can legally claim t: hand completes, at
// least one yaku, not furiten.
func (r *Round) ronCallers(from int, t tile.Tile, chankan bool) []int {
	var out []int
	for seat := 0; seat < 4; seat++ {
		if seat == from {
			continue
		}
		if r.canRon(seat, t, chankan) {
			out = append(out, seat)
		}
	}
	return out
}

func (r *Round) canRon(seat int, t tile.Tile, chankan bool) bool {
	s := r.Seats[seat]
	if !rules.WinsOn(s.Concealed, s.Melds, t) {
		return false
	}
	if s.furiten() {
		return false
	}
	_, err := score.Evaluate(s.Concealed, s.Melds, r.winContext(seat, t, false, chankan))
	return err == nil
}

// markRiichiFuriten flags any riichi seat waiting on t that cannot actually
// claim it; the flag is permanent for the round.
func (r *Round) markRiichiFuriten(from int, t tile.Tile, ronSeats []int) []event.Event {
	inRon := make(map[int]bool, len(ronSeats))
	for _, s := range ronSeats {
		inRon[s] = true
	}
	var evs []event.Event
	for seat := 0; seat < 4; seat++ {
		if seat == from || inRon[seat] {
			continue
		}
		s := r.Seats[seat]
		if s.Riichi && !s.RiichiFuriten && rules.WaitsInclude(s.waits(), t.Type()) {
			s.RiichiFuriten = true
			evs = append(evs, event.NewSeat(event.TypeFuriten, seat, event.Furiten{IsFuriten: true}))
		}
	}
	return evs
}

// buildCallers assembles the prompt caller descriptors. Ron-dominant: a seat
// in the ron set never appears as a meld caller. Meld calls are forbidden
// once the live wall is empty.
func (r *Round) buildCallers(from int, t tile.Tile, ronSeats []int) []event.CallerInfo {
	inRon := make(map[int]bool, len(ronSeats))
	for _, s := range ronSeats {
		inRon[s] = true
	}
	var callers []event.CallerInfo
	for seat := 0; seat < 4; seat++ {
		if seat == from {
			continue
		}
		c := event.CallerInfo{Seat: seat, CanRon: inRon[seat]}
		if !inRon[seat] && r.Wall.Remaining() > 0 {
			s := r.Seats[seat]
			if !s.Riichi {
				if rules.CanPon(s.Concealed, t) {
					c.CanPon = true
				}
				if r.kanAllowed() && rules.CanOpenKan(s.Concealed, t) {
					c.CanKan = true
				}
				if kamicha(seat) == from {
					for _, o := range rules.ChiOptions(s.Concealed, t) {
						c.ChiOptions = append(c.ChiOptions, o.Tiles)
					}
				}
			}
		}
		if c.CanRon || c.CanPon || c.CanKan || len(c.ChiOptions) > 0 {
			callers = append(callers, c)
		}
	}
	return callers
}

// advanceAfterDiscard is the no-callers branch: mark temporary furiten, flush
// deferred kan dora, finalize a pending riichi, run the four-riichi and
// four-kan aborts, then advance the turn and draw for the next seat.
func (r *Round) advanceAfterDiscard(from int, t tile.Tile) (*Round, []event.Event) {
	var events []event.Event

	for seat := 0; seat < 4; seat++ {
		if seat == from {
			continue
		}
		s := r.Seats[seat]
		if !s.Riichi && rules.WaitsInclude(s.waits(), t.Type()) {
			s.TemporaryFuriten = true
		}
	}

	for _, ind := range r.Wall.FlushPendingDora() {
		events = append(events, event.NewBroadcast(event.TypeDoraRevealed, event.DoraRevealed{Tile: ind}))
	}

	events = append(events, r.finalizePendingRiichi(from)...)

	if r.allRiichi() {
		n, evs := r.finishAbort(event.AbortFourRiichi)
		return n, append(events, evs...)
	}
	if r.TotalKans >= 4 && r.seatsHoldingKans() >= r.Settings.FourKanMinPlayers {
		n, evs := r.finishAbort(event.AbortFourKans)
		return n, append(events, evs...)
	}

	r.Current = (from + 1) % 4
	r.AfterMeldCall = false
	n, evs := r.ProcessDraw()
	return n, append(events, evs...)
}

// finalizePendingRiichi completes a riichi declaration whose discard survived
// the ron window: the stick goes to the table and ippatsu opens.
func (r *Round) finalizePendingRiichi(seat int) []event.Event {
	s := r.Seats[seat]
	if !s.PendingRiichi {
		return nil
	}
	s.PendingRiichi = false
	s.Riichi = true
	s.DoubleRiichi = s.PendingDoubleRiichi
	s.PendingDoubleRiichi = false
	s.Ippatsu = true
	s.Score -= score.RiichiStickValue
	r.RiichiSticks++
	return []event.Event{event.NewBroadcast(event.TypeRiichiDeclared, event.RiichiDeclared{Seat: seat})}
}

func (r *Round) allRiichi() bool {
	for _, s := range r.Seats {
		if !s.Riichi {
			return false
		}
	}
	return true
}

func (r *Round) fourWindsTriggered() bool {
	if !r.firstGoAround() {
		return false
	}
	var first tile.Type = -1
	for _, s := range r.Seats {
		if len(s.Discards) != 1 {
			return false
		}
		tt := s.Discards[0].Tile.Type()
		if tt < tile.East || tt > tile.North {
			return false
		}
		if first == -1 {
			first = tt
		} else if tt != first {
			return false
		}
	}
	return true
}

// clearIppatsuAll: any call breaks every seat's one-shot window.
func (r *Round) clearIppatsuAll() {
	for _, s := range r.Seats {
		s.Ippatsu = false
	}
}
