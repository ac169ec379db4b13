// Package round implements the deterministic round state machine. Every
// transition takes the current state and returns a fresh state plus the events
// it produced; callers never observe in-place mutation.
package round

import (
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
	"github.com/mjgo/server/internal/wall"
)

// Settings are the rule switches the machine consults. Loaded from the rule
// presets; defaults match a standard hanchan.
type Settings struct {
	UseRedFives            bool `yaml:"use_red_fives"`
	ClosedKanDoraImmediate bool `yaml:"closed_kan_dora_immediate"`
	TripleRonAborts        bool `yaml:"triple_ron_aborts"`
	FourKanMinPlayers      int  `yaml:"four_kan_min_players"`
	MaxKans                int  `yaml:"max_kans"`
	MinWallForKan          int  `yaml:"min_wall_for_kan"`
	KyuushuEnabled         bool `yaml:"kyuushu_enabled"`
	NagashiMangan          bool `yaml:"nagashi_mangan"`
	RiichiRequiresPoints   bool `yaml:"riichi_requires_points"`
}

func DefaultSettings() Settings {
	return Settings{
		UseRedFives:            false,
		ClosedKanDoraImmediate: true,
		TripleRonAborts:        true,
		FourKanMinPlayers:      2,
		MaxKans:                4,
		MinWallForKan:          1,
		KyuushuEnabled:         true,
		NagashiMangan:          true,
		RiichiRequiresPoints:   true,
	}
}

type Phase int

const (
	PhasePlaying Phase = iota
	PhaseFinished
)

// Discard is one entry of a seat's discard pile.
type Discard struct {
	Tile        tile.Tile
	IsTsumogiri bool
	IsRiichi    bool
}

// SeatState holds one seat's tiles and round-scoped flags.
type SeatState struct {
	Name  string
	Score int

	Concealed []tile.Tile // last element is the drawn tile while HasDrawn
	Melds     []rules.Meld
	Discards  []Discard

	DrawnTile tile.Tile
	HasDrawn  bool

	Riichi           bool
	DoubleRiichi     bool
	Ippatsu          bool
	TemporaryFuriten bool
	RiichiFuriten    bool
	Rinshan          bool
	PaoSeat          int // seat liable under responsibility rules, -1 none

	// Riichi declared on the current discard, finalized only once the
	// discard survives the ron window.
	PendingRiichi       bool
	PendingDoubleRiichi bool

	// Kuikae: types this seat may not discard on its immediate next discard.
	ForbiddenDiscards map[tile.Type]bool

	// True once any opponent has claimed one of this seat's discards;
	// disqualifies nagashi mangan.
	DiscardsClaimed bool
}

func (s *SeatState) clone() *SeatState {
	c := *s
	c.Concealed = append([]tile.Tile(nil), s.Concealed...)
	c.Melds = make([]rules.Meld, len(s.Melds))
	for i, m := range s.Melds {
		c.Melds[i] = m.Clone()
	}
	c.Discards = append([]Discard(nil), s.Discards...)
	if s.ForbiddenDiscards != nil {
		c.ForbiddenDiscards = make(map[tile.Type]bool, len(s.ForbiddenDiscards))
		for k, v := range s.ForbiddenDiscards {
			c.ForbiddenDiscards[k] = v
		}
	}
	return &c
}

// removeTile takes one physical tile out of the concealed hand.
func (s *SeatState) removeTile(t tile.Tile) bool {
	for i, h := range s.Concealed {
		if h == t {
			s.Concealed = append(s.Concealed[:i], s.Concealed[i+1:]...)
			return true
		}
	}
	return false
}

// Holds reports whether the concealed hand contains the physical tile.
func (s *SeatState) Holds(t tile.Tile) bool {
	for _, h := range s.Concealed {
		if h == t {
			return true
		}
	}
	return false
}

// handWithoutDrawn returns the 13-shaped hand (concealed minus the drawn
// tile) for wait computation.
func (s *SeatState) handWithoutDrawn() []tile.Tile {
	if !s.HasDrawn {
		return s.Concealed
	}
	out := make([]tile.Tile, 0, len(s.Concealed)-1)
	removed := false
	for _, t := range s.Concealed {
		if !removed && t == s.DrawnTile {
			removed = true
			continue
		}
		out = append(out, t)
	}
	return out
}

// Waits of the seat's 13-shaped hand.
func (s *SeatState) waits() []tile.Type {
	return rules.TenpaiWaits(s.handWithoutDrawn(), s.Melds)
}

// Furiten reports whether this seat currently may not ron.
func (s *SeatState) furiten() bool {
	if s.TemporaryFuriten || s.RiichiFuriten {
		return true
	}
	own := make([]tile.Tile, 0, len(s.Discards))
	for _, d := range s.Discards {
		own = append(own, d.Tile)
	}
	return rules.DiscardFuriten(s.waits(), own)
}

// Response is one seat's answer to a pending prompt.
type Response struct {
	Seat    int
	Action  string // "ron", "pon", "chi", "kan", "pass"
	ChiPair [2]tile.Tile
}

// pendingKan is a kan suspended behind a chankan window.
type pendingKan struct {
	Seat int
	Kind rules.MeldKind
	Tile tile.Tile // the added/fourth tile
}

// Prompt is the explicit data structure for the multi-party call protocol;
// no goroutine parks on it.
type Prompt struct {
	CallType  string // event.CallMeld / CallRon / CallChankan
	Tile      tile.Tile
	FromSeat  int
	Pending   map[int]bool
	Callers   []event.CallerInfo
	Responses []Response

	Kan *pendingKan // set for chankan prompts
}

func (p *Prompt) clone() *Prompt {
	c := *p
	c.Pending = make(map[int]bool, len(p.Pending))
	for k, v := range p.Pending {
		c.Pending[k] = v
	}
	c.Callers = append([]event.CallerInfo(nil), p.Callers...)
	c.Responses = append([]Response(nil), p.Responses...)
	if p.Kan != nil {
		k := *p.Kan
		c.Kan = &k
	}
	return &c
}

// Payload rebuilds the wire prompt, for substitutes and reconnect replays.
func (p *Prompt) Payload() event.CallPrompt {
	return event.CallPrompt{
		CallType: p.CallType,
		Tile:     p.Tile,
		FromSeat: p.FromSeat,
		Callers:  append([]event.CallerInfo(nil), p.Callers...),
	}
}

func (p *Prompt) caller(seat int) *event.CallerInfo {
	for i := range p.Callers {
		if p.Callers[i].Seat == seat {
			return &p.Callers[i]
		}
	}
	return nil
}

// Round is the full immutable round state.
type Round struct {
	Settings Settings

	Dealer  int
	Current int
	Wind    int // round wind 0..3
	Number  int // display round number within the wind (1..4)

	Honba        int
	RiichiSticks int

	Wall  *wall.Wall
	Seats [4]*SeatState

	Prompt *Prompt
	Phase  Phase

	// True on the turn immediately following a pon/chi/open-kan (the caller
	// discards without drawing).
	AfterMeldCall bool

	// Any meld/ron call this round; breaks the "uninterrupted first go-around"
	// needed by four-winds, kyuushu and double riichi.
	AnyCallMade bool

	TotalKans int

	Result *event.RoundEnd // set when Phase == PhaseFinished
}

// Clone deep-copies the round state.
func (r *Round) Clone() *Round {
	c := *r
	c.Wall = r.Wall.Clone()
	for i, s := range r.Seats {
		c.Seats[i] = s.clone()
	}
	if r.Prompt != nil {
		c.Prompt = r.Prompt.clone()
	}
	if r.Result != nil {
		res := *r.Result
		c.Result = &res
	}
	return &c
}

// firstGoAround reports an uninterrupted first turn cycle: nobody has called
// and no seat has discarded more than once.
func (r *Round) firstGoAround() bool {
	if r.AnyCallMade {
		return false
	}
	for _, s := range r.Seats {
		if len(s.Discards) > 1 {
			return false
		}
	}
	return true
}

// seatsHoldingKans counts distinct seats with at least one kan meld.
func (r *Round) seatsHoldingKans() int {
	n := 0
	for _, s := range r.Seats {
		for _, m := range s.Melds {
			if m.Kind.IsKan() {
				n++
				break
			}
		}
	}
	return n
}

// kamicha is the seat immediately upstream of seat (the only one it may chi).
func kamicha(seat int) int { return (seat + 3) % 4 }

// SeatWind returns the seat's wind type given the dealer.
func (r *Round) SeatWind(seat int) tile.Type {
	return tile.WindType((seat - r.Dealer + 4) % 4)
}

// New deals a fresh round. The wall must already be shuffled; 13 tiles go to
// each seat starting from the dealer, in seat order.
func New(st Settings, dealer, windIdx, number, honba, riichiSticks int, w *wall.Wall, names [4]string, scores [4]int) *Round {
	r := &Round{
		Settings:     st,
		Dealer:       dealer,
		Current:      dealer,
		Wind:         windIdx,
		Number:       number,
		Honba:        honba,
		RiichiSticks: riichiSticks,
		Wall:         w,
	}
	for i := 0; i < 4; i++ {
		r.Seats[i] = &SeatState{Name: names[i], Score: scores[i], PaoSeat: -1}
	}
	for n := 0; n < 13; n++ {
		for i := 0; i < 4; i++ {
			seat := (dealer + i) % 4
			t, _ := w.Draw()
			r.Seats[seat].Concealed = append(r.Seats[seat].Concealed, t)
		}
	}
	return r
}
