// Package game orchestrates a four-player match across rounds: it owns the
// current round state, applies player/substitute actions, advances dealership
// and honba, and decides when the match ends. A Game is not self-locking; the
// session layer serializes all calls for one game.
package game

import (
	"sort"

	"go.uber.org/zap"

	"github.com/mjgo/server/internal/ai"
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/round"
	"github.com/mjgo/server/internal/wall"
)

// Settings selects the match format on top of the round rule switches.
type Settings struct {
	Preset         string         `yaml:"preset"`
	StartingPoints int            `yaml:"starting_points"`
	EndWinds       int            `yaml:"end_winds"` // 1 = east only, 2 = hanchan
	Round          round.Settings `yaml:"round"`
}

func DefaultSettings() Settings {
	return Settings{
		Preset:         "hanchan",
		StartingPoints: 25000,
		EndWinds:       2,
		Round:          round.DefaultSettings(),
	}
}

// Player is one seat's identity within a game.
type Player struct {
	Name string
	IsAI bool
}

// Game is the per-match orchestrator.
type Game struct {
	ID  string
	log *zap.Logger

	settings Settings
	seed     func() int64

	players    [4]Player
	strategies [4]ai.Strategy // nil for human-controlled seats

	cur    *round.Round
	scores [4]int

	dealer  int
	windIdx int
	number  int // round number within the wind, 1..4
	honba   int
	sticks  int

	roundsPlayed int

	// Non-nil between rounds: seats that still owe an advance confirmation.
	pendingAdvance map[int]bool

	finished bool
	result   *event.GameEnded
}

// New builds a game in the pre-start state. seed supplies one wall seed per
// round; substitutes use strategy when a seat is replaced.
func New(id string, names [4]string, st Settings, seed func() int64, log *zap.Logger) *Game {
	g := &Game{
		ID:       id,
		log:      log.With(zap.String("game_id", id)),
		settings: st,
		seed:     seed,
	}
	for i, n := range names {
		g.players[i] = Player{Name: n}
		g.scores[i] = st.StartingPoints
	}
	g.number = 1
	return g
}

func (g *Game) Finished() bool           { return g.finished }
func (g *Game) Result() *event.GameEnded { return g.result }
func (g *Game) Players() [4]Player       { return g.players }
func (g *Game) Round() *round.Round      { return g.cur }
func (g *Game) RoundsPlayed() int        { return g.roundsPlayed }
func (g *Game) AwaitingAdvance() bool    { return g.pendingAdvance != nil }

// AdvancePending reports whether the seat still owes a between-rounds
// confirmation.
func (g *Game) AdvancePending(seat int) bool { return g.pendingAdvance[seat] }
func (g *Game) IsAI(seat int) bool           { return g.players[seat].IsAI }

// Start deals the first round.
func (g *Game) Start() []event.Event {
	events := []event.Event{event.NewBroadcast(event.TypeGameStarted, event.GameStarted{
		GameID:  g.ID,
		Players: g.playerInfos(),
	})}
	events = append(events, g.startRound()...)
	return append(events, g.runSubstitutes()...)
}

func (g *Game) playerInfos() []event.PlayerInfo {
	out := make([]event.PlayerInfo, 4)
	for i, p := range g.players {
		out[i] = event.PlayerInfo{Seat: i, Name: p.Name, Score: g.scores[i], IsAI: p.IsAI}
	}
	return out
}

func (g *Game) startRound() []event.Event {
	w := wall.New(g.seed())
	var names [4]string
	for i, p := range g.players {
		names[i] = p.Name
	}
	g.cur = round.New(g.settings.Round, g.dealer, g.windIdx, g.number, g.honba, g.sticks, w, names, g.scores)
	g.pendingAdvance = nil

	g.log.Info("回合開始",
		zap.Int("wind", g.windIdx), zap.Int("number", g.number),
		zap.Int("dealer", g.dealer), zap.Int("honba", g.honba))

	var events []event.Event
	for seat := 0; seat < 4; seat++ {
		events = append(events, event.NewSeat(event.TypeRoundStarted, seat, event.RoundStarted{
			Seat:           seat,
			RoundWind:      g.windIdx,
			RoundNumber:    g.number,
			DealerSeat:     g.dealer,
			CurrentSeat:    g.dealer,
			DoraIndicators: g.cur.Wall.DoraIndicators(),
			Honba:          g.honba,
			RiichiSticks:   g.sticks,
			MyTiles:        g.cur.Seats[seat].Concealed,
			Players:        g.playerInfos(),
		}))
	}

	next, evs := g.cur.ProcessDraw()
	g.cur = next
	events = append(events, evs...)
	return g.afterTransition(events)
}

// afterTransition inspects the round after any successful transition and
// switches the game into the between-rounds state when it ended.
func (g *Game) afterTransition(events []event.Event) []event.Event {
	if g.cur.Phase != round.PhaseFinished || g.pendingAdvance != nil {
		return events
	}
	g.roundsPlayed++
	for i, s := range g.cur.Seats {
		g.scores[i] = s.Score
	}
	g.sticks = g.cur.RiichiSticks
	res := g.cur.Result

	// Nagashi mangan never moves the honba counter in either direction.
	nagashi := res.Result == event.ResultNagashiMangan
	if res.DealerRepeat {
		if !nagashi {
			g.honba++
		}
	} else {
		g.dealer = (g.dealer + 1) % 4
		g.number++
		if g.number > 4 {
			g.windIdx++
			g.number = 1
		}
		// Honba still grows across draws even when the deal passes.
		switch res.Result {
		case event.ResultExhaustiveDraw, event.ResultAbortiveDraw:
			g.honba++
		case event.ResultNagashiMangan:
		default:
			g.honba = 0
		}
	}

	if g.matchOver() {
		return append(events, g.endGame()...)
	}

	g.pendingAdvance = make(map[int]bool, 4)
	for seat := 0; seat < 4; seat++ {
		g.pendingAdvance[seat] = true
	}
	return events
}

func (g *Game) matchOver() bool {
	for _, s := range g.scores {
		if s < 0 {
			return true
		}
	}
	return g.windIdx >= g.settings.EndWinds
}

// endGame pays leftover riichi sticks to the leader and publishes standings.
// Ties break toward the seat closest to the initial east.
func (g *Game) endGame() []event.Event {
	order := []int{0, 1, 2, 3}
	sort.SliceStable(order, func(i, j int) bool {
		return g.scores[order[i]] > g.scores[order[j]]
	})
	if g.sticks > 0 {
		g.scores[order[0]] += g.sticks * 1000
		g.sticks = 0
	}

	standings := make([]event.Standing, 4)
	for place, seat := range order {
		standings[place] = event.Standing{
			Seat:  seat,
			Name:  g.players[seat].Name,
			Score: g.scores[seat],
			Place: place + 1,
		}
	}
	g.finished = true
	g.pendingAdvance = nil
	g.result = &event.GameEnded{
		WinnerSeat: order[0],
		Standings:  standings,
		NumRounds:  g.roundsPlayed,
	}
	g.log.Info("對局結束",
		zap.Int("winner", order[0]), zap.Int("rounds", g.roundsPlayed))
	return []event.Event{event.NewBroadcast(event.TypeGameEnded, *g.result)}
}

// ConfirmAdvance records a seat's between-rounds confirmation; the next round
// deals once every seat has confirmed.
func (g *Game) ConfirmAdvance(seat int) []event.Event {
	if g.pendingAdvance == nil {
		return nil
	}
	delete(g.pendingAdvance, seat)
	if len(g.pendingAdvance) > 0 {
		return nil
	}
	events := g.startRound()
	return append(events, g.runSubstitutes()...)
}

// Snapshot builds the reconnecting seat's full view of the game.
func (g *Game) Snapshot(seat int) event.GameSnapshot {
	r := g.cur
	snap := event.GameSnapshot{
		GameID:         g.ID,
		RoundWind:      g.windIdx,
		RoundNumber:    g.number,
		DealerSeat:     r.Dealer,
		CurrentSeat:    r.Current,
		Honba:          r.Honba,
		RiichiSticks:   r.RiichiSticks,
		WallRemaining:  r.Wall.Remaining(),
		DoraIndicators: r.Wall.DoraIndicators(),
	}
	snap.MyTiles = append(snap.MyTiles, r.Seats[seat].Concealed...)
	if r.Seats[seat].HasDrawn {
		d := r.Seats[seat].DrawnTile
		snap.MyDrawn = &d
	}

	for i, s := range r.Seats {
		ss := event.SeatSnapshot{
			Seat:      i,
			Name:      g.players[i].Name,
			Score:     s.Score,
			IsAI:      g.players[i].IsAI,
			Riichi:    s.Riichi,
			HandCount: len(s.Concealed),
		}
		for _, m := range s.Melds {
			em := event.Meld{MeldType: m.Kind.String(), CallerSeat: i, Tiles: m.Tiles}
			if m.Kind.Open() {
				from := m.From
				called := m.Called
				em.FromSeat = &from
				em.CalledTile = &called
			}
			ss.Melds = append(ss.Melds, em)
		}
		for _, d := range s.Discards {
			ss.Discards = append(ss.Discards, event.DiscardSnapshot{
				Tile: d.Tile, IsTsumogiri: d.IsTsumogiri, IsRiichi: d.IsRiichi,
			})
		}
		snap.Seats = append(snap.Seats, ss)
	}

	if r.Phase == round.PhaseFinished {
		snap.RoundResult = r.Result
	} else if r.Prompt != nil {
		if r.Prompt.Pending[seat] {
			p := r.Prompt.Payload()
			snap.Prompt = &p
		}
	} else if r.Current == seat {
		snap.AvailableActions = r.AvailableActions(seat)
	}
	return snap
}
