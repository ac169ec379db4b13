package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mjgo/server/internal/ai"
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/round"
	"github.com/mjgo/server/internal/tile"
)

var testNames = [4]string{"ton", "nan", "sha", "pei"}

func newTestGame(st Settings) *Game {
	var n int64
	seed := func() int64 {
		n++
		return n * 7919
	}
	return New("g-test", testNames, st, seed, zap.NewNop())
}

// finishedRound fakes a just-ended round so the between-rounds bookkeeping can
// be exercised directly.
func finishedRound(scores [4]int, result string, dealerRepeat bool, sticks int) *round.Round {
	r := &round.Round{
		Phase:        round.PhaseFinished,
		RiichiSticks: sticks,
		Result:       &event.RoundEnd{Result: result, DealerRepeat: dealerRepeat},
	}
	for i := range r.Seats {
		r.Seats[i] = &round.SeatState{Score: scores[i], PaoSeat: -1}
	}
	return r
}

func TestAllSubstituteGameRunsToCompletion(t *testing.T) {
	st := DefaultSettings()
	st.EndWinds = 1
	g := newTestGame(st)
	for seat := 0; seat < 4; seat++ {
		g.SeatAI(seat, ai.Tsumogiri{})
	}

	evs := g.Start()
	require.NotEmpty(t, evs)
	assert.Equal(t, event.TypeGameStarted, evs[0].Type)

	require.True(t, g.Finished(), "four substitutes finish without outside input")
	res := g.Result()
	require.NotNil(t, res)
	require.Len(t, res.Standings, 4)

	total := 0
	seen := map[int]bool{}
	for i, s := range res.Standings {
		assert.Equal(t, i+1, s.Place)
		assert.False(t, seen[s.Seat])
		seen[s.Seat] = true
		total += s.Score
	}
	assert.Equal(t, 4*st.StartingPoints, total)
	assert.GreaterOrEqual(t, res.NumRounds, 1)
	assert.Equal(t, res.NumRounds, g.RoundsPlayed())
}

func TestAfterTransitionHonbaAndDealer(t *testing.T) {
	t.Run("non-dealer ron resets honba and passes the deal", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.honba = 2
		g.cur = finishedRound([4]int{24000, 27000, 25000, 24000}, event.ResultRon, false, 0)
		g.afterTransition(nil)
		assert.Equal(t, 0, g.honba)
		assert.Equal(t, 1, g.dealer)
		assert.Equal(t, 2, g.number)
		assert.True(t, g.AwaitingAdvance())
		assert.Equal(t, [4]int{24000, 27000, 25000, 24000}, g.scores)
	})

	t.Run("dealer win repeats with honba", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.cur = finishedRound([4]int{27000, 24000, 25000, 24000}, event.ResultRon, true, 0)
		g.afterTransition(nil)
		assert.Equal(t, 1, g.honba)
		assert.Equal(t, 0, g.dealer)
		assert.Equal(t, 1, g.number)
	})

	t.Run("draw grows honba even when the deal passes", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.cur = finishedRound([4]int{24000, 26000, 25000, 25000}, event.ResultExhaustiveDraw, false, 1)
		g.afterTransition(nil)
		assert.Equal(t, 1, g.honba)
		assert.Equal(t, 1, g.dealer)
		assert.Equal(t, 1, g.sticks, "table sticks carry into the next round")
	})

	t.Run("nagashi pins honba in both directions", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.honba = 3
		g.cur = finishedRound([4]int{25000, 25000, 25000, 25000}, event.ResultNagashiMangan, true, 0)
		g.afterTransition(nil)
		assert.Equal(t, 3, g.honba, "dealer repeat")

		g2 := newTestGame(DefaultSettings())
		g2.honba = 3
		g2.cur = finishedRound([4]int{25000, 25000, 25000, 25000}, event.ResultNagashiMangan, false, 0)
		g2.afterTransition(nil)
		assert.Equal(t, 3, g2.honba, "deal pass")
		assert.Equal(t, 1, g2.dealer)
	})

	t.Run("round number rolls over into the next wind", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.dealer, g.number = 3, 4
		g.cur = finishedRound([4]int{25000, 25000, 25000, 25000}, event.ResultRon, false, 0)
		g.afterTransition(nil)
		assert.Equal(t, 1, g.windIdx)
		assert.Equal(t, 1, g.number)
		assert.Equal(t, 0, g.dealer)
	})

	t.Run("passing the last wind ends the match", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.windIdx, g.dealer, g.number = 1, 3, 4
		g.cur = finishedRound([4]int{30000, 25000, 25000, 20000}, event.ResultRon, false, 0)
		evs := g.afterTransition(nil)
		require.True(t, g.Finished())
		require.Len(t, evs, 1)
		assert.Equal(t, event.TypeGameEnded, evs[0].Type)
		assert.False(t, g.AwaitingAdvance())
	})

	t.Run("a busted seat ends the match immediately", func(t *testing.T) {
		g := newTestGame(DefaultSettings())
		g.cur = finishedRound([4]int{-1000, 51000, 25000, 25000}, event.ResultRon, false, 0)
		g.afterTransition(nil)
		assert.True(t, g.Finished())
		assert.Equal(t, 1, g.Result().WinnerSeat)
	})
}

func TestConfirmAdvanceNeedsAllSeats(t *testing.T) {
	g := newTestGame(DefaultSettings())
	g.cur = finishedRound([4]int{24000, 27000, 25000, 24000}, event.ResultRon, false, 0)
	g.afterTransition(nil)
	require.True(t, g.AwaitingAdvance())

	for seat := 0; seat < 3; seat++ {
		assert.Empty(t, g.ConfirmAdvance(seat))
		assert.True(t, g.AwaitingAdvance())
	}

	evs := g.ConfirmAdvance(3)
	require.NotEmpty(t, evs, "last confirmation deals the next round")
	started := 0
	for _, e := range evs {
		if e.Type == event.TypeRoundStarted {
			started++
		}
	}
	assert.Equal(t, 4, started, "every seat gets its own deal view")
	assert.False(t, g.AwaitingAdvance())
	assert.Equal(t, round.PhasePlaying, g.Round().Phase)
	assert.Equal(t, 1, g.Round().Dealer)

	// Duplicate confirmations after the deal are ignored.
	assert.Empty(t, g.ConfirmAdvance(3))
}

func TestGuardTurn(t *testing.T) {
	g := newTestGame(DefaultSettings())
	g.Start()

	// Wrong seat is a soft error, not a protocol violation.
	evs, err := g.Discard(1, g.Round().Seats[1].Concealed[0], false)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, event.TypeError, evs[0].Type)
	assert.Equal(t, "NOT_YOUR_TURN", evs[0].Data.(event.Error).Code)

	// A turn action while a prompt is outstanding disconnects the sender.
	g.cur.Prompt = &round.Prompt{Pending: map[int]bool{1: true}}
	_, err = g.Discard(0, g.Round().Seats[0].DrawnTile, false)
	var ie *round.InvalidError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "GAME_ERROR", ie.Code)
	g.cur.Prompt = nil

	// Late call responses are soft too.
	evs, err = g.CallResponse(2, round.RespPass, [2]tile.Tile{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "NO_PENDING_CALL", evs[0].Data.(event.Error).Code)

	// The dealer's real discard goes through.
	evs, err = g.Discard(0, g.Round().Seats[0].DrawnTile, false)
	require.NoError(t, err)
	assert.NotEmpty(t, evs)
	assert.Equal(t, event.TypeDiscard, evs[0].Type)
}

func TestTimeoutDefaults(t *testing.T) {
	g := newTestGame(DefaultSettings())
	g.Start()

	// Off-turn timeout is a no-op.
	assert.Empty(t, g.Timeout(2))

	// Acting seat times out into a tsumogiri.
	evs := g.Timeout(g.Round().Current)
	require.NotEmpty(t, evs)
	assert.Equal(t, event.TypeDiscard, evs[0].Type)
	assert.True(t, evs[0].Data.(event.Discard).IsTsumogiri)

	// Between rounds a timeout confirms the advance.
	g2 := newTestGame(DefaultSettings())
	g2.cur = finishedRound([4]int{24000, 27000, 25000, 24000}, event.ResultRon, false, 0)
	g2.afterTransition(nil)
	for seat := 0; seat < 3; seat++ {
		assert.Empty(t, g2.Timeout(seat))
	}
	assert.NotEmpty(t, g2.Timeout(3))
	assert.False(t, g2.AwaitingAdvance())
}

func TestEndGameStickPayoutAndTieBreak(t *testing.T) {
	g := newTestGame(DefaultSettings())
	g.scores = [4]int{30000, 30000, 21000, 19000}
	g.sticks = 2

	evs := g.endGame()
	require.Len(t, evs, 1)
	res := g.Result()
	require.NotNil(t, res)

	// Seats 0 and 1 tie; the seat closer to the initial east wins and takes
	// the leftover sticks.
	assert.Equal(t, 0, res.WinnerSeat)
	assert.Equal(t, 32000, res.Standings[0].Score)
	assert.Equal(t, 1, res.Standings[1].Seat)
	assert.Equal(t, 30000, res.Standings[1].Score)
	assert.Equal(t, 4, res.Standings[3].Place)
	assert.True(t, g.Finished())
}

func TestReplaceWithAIPlaysOwedTurn(t *testing.T) {
	g := newTestGame(DefaultSettings())
	g.Start()
	dealer := g.Round().Current

	evs := g.ReplaceWithAI(dealer, ai.Tsumogiri{})
	assert.True(t, g.IsAI(dealer))
	found := false
	for _, e := range evs {
		if e.Type == event.TypeDiscard && e.Data.(event.Discard).Seat == dealer {
			found = true
		}
	}
	assert.True(t, found, "substitute immediately plays the owed discard")

	g.RestoreHuman(dealer)
	assert.False(t, g.IsAI(dealer))
}

func TestSnapshotViews(t *testing.T) {
	g := newTestGame(DefaultSettings())
	g.Start()

	snap := g.Snapshot(0)
	assert.Equal(t, "g-test", snap.GameID)
	assert.Equal(t, 0, snap.CurrentSeat)
	assert.Len(t, snap.MyTiles, 14, "dealer has drawn")
	require.NotNil(t, snap.MyDrawn)
	assert.NotEmpty(t, snap.AvailableActions)
	require.Len(t, snap.Seats, 4)
	assert.Equal(t, "nan", snap.Seats[1].Name)
	assert.Equal(t, 14, snap.Seats[0].HandCount)

	other := g.Snapshot(2)
	assert.Len(t, other.MyTiles, 13)
	assert.Nil(t, other.MyDrawn)
	assert.Empty(t, other.AvailableActions, "only the acting seat gets actions")
	assert.Nil(t, other.Prompt)
}
