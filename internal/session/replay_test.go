package session

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/tile"
)

func decodeLines(t *testing.T, rc *ReplayCollector) []map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(rc.Bytes()), []byte("\n"))
	out := make([]map[string]any, len(lines))
	for i, ln := range lines {
		require.NoError(t, json.Unmarshal(ln, &out[i]), "line %d", i)
	}
	return out
}

func TestReplayHeader(t *testing.T) {
	rc := NewReplayCollector("g-42", 1234)
	require.Equal(t, 1, rc.Len())

	recs := decodeLines(t, rc)
	assert.Equal(t, "header", recs[0]["type"])
	data := recs[0]["data"].(map[string]any)
	assert.Equal(t, "g-42", data["game_id"])
	assert.Equal(t, float64(1234), data["seed"])
	assert.Equal(t, float64(1), data["rng_version"])
}

func TestReplayMergesRoundStarts(t *testing.T) {
	rc := NewReplayCollector("g", 1)

	for seat := 0; seat < 4; seat++ {
		rc.Offer(event.NewSeat(event.TypeRoundStarted, seat, event.RoundStarted{
			Seat:        seat,
			RoundWind:   0,
			RoundNumber: 1,
			DealerSeat:  0,
			MyTiles:     []tile.Tile{tile.Tile(seat * 4)},
		}))
		if seat < 3 {
			assert.Equal(t, 1, rc.Len(), "deal record waits for all four views")
		}
	}
	require.Equal(t, 2, rc.Len())

	recs := decodeLines(t, rc)
	assert.Equal(t, event.TypeRoundStarted, recs[1]["type"])
	hands := recs[1]["data"].(map[string]any)["hands"].([]any)
	require.Len(t, hands, 4)
	assert.Equal(t, float64(8), hands[2].([]any)[0])
}

func TestReplayStripsDrawHints(t *testing.T) {
	rc := NewReplayCollector("g", 1)
	rc.Offer(event.NewBroadcast(event.TypeDraw, event.Draw{
		Seat: 1, Tile: 5, WallRemaining: 60,
		AvailableActions: []event.AvailableAction{{Action: event.ActDiscard}},
	}))

	require.Equal(t, 2, rc.Len())
	assert.NotContains(t, string(rc.Bytes()), "available_actions")
}

func TestReplaySkipsTransientAndTargetedEvents(t *testing.T) {
	rc := NewReplayCollector("g", 1)
	base := rc.Len()

	rc.Offer(event.NewSeat(event.TypeCallPrompt, 1, event.CallPrompt{}))
	rc.Offer(event.NewError(2, "NOT_YOUR_TURN", "x"))
	rc.Offer(event.NewSeat(event.TypeFuriten, 0, event.Furiten{IsFuriten: true}))
	rc.Offer(event.NewBroadcast(event.TypeTurn, event.Turn{Seat: 1}))
	rc.Offer(event.NewBroadcast(event.TypeChat, event.Chat{Text: "hi"}))
	rc.Offer(event.NewSeat(event.TypePong, 0, nil))
	// Per-seat payloads outside the allow list never enter the journal.
	rc.Offer(event.NewSeat(event.TypeGameStarting, 0, event.GameStarting{GameID: "g"}))

	assert.Equal(t, base, rc.Len())
}

func TestReplayRecordsBroadcastFlow(t *testing.T) {
	rc := NewReplayCollector("g", 1)
	rc.Offer(event.NewBroadcast(event.TypeDiscard, event.Discard{Seat: 0, Tile: 3}))
	rc.Offer(event.NewBroadcast(event.TypeRiichiDeclared, event.RiichiDeclared{Seat: 0}))
	rc.Offer(event.NewBroadcast(event.TypeRoundEnd, event.RoundEnd{Result: event.ResultTsumo}))

	require.Equal(t, 4, rc.Len())
	recs := decodeLines(t, rc)
	assert.Equal(t, event.TypeDiscard, recs[1]["type"])
	assert.Equal(t, event.TypeRoundEnd, recs[3]["type"])

	// One record per line, all lines parse.
	lines := bytes.Split(bytes.TrimSpace(rc.Bytes()), []byte("\n"))
	assert.Len(t, lines, rc.Len())
}
