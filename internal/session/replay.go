package session

import (
	"bytes"
	"encoding/json"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/tile"
)

// Replay journal format version and the RNG/wall layout version the seed in
// the header applies to. Bump rngVersion whenever the deal algorithm changes,
// or old replays re-deal incorrectly.
const (
	replayVersion = 1
	rngVersion    = 1
)

// ReplayCollector accumulates the game journal: one JSON record per line,
// header first. Prompts, per-seat errors, furiten notices and turn markers
// are transient and never recorded; everything else needed to re-watch the
// game is. The caller serializes Offer under the game lock.
type ReplayCollector struct {
	records [][]byte

	// The four per-seat deal events of one round, merged into a single
	// record once all have arrived.
	roundStarts []event.RoundStarted
}

type replayRecord struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type replayHeader struct {
	Version    int    `json:"version"`
	GameID     string `json:"game_id"`
	Seed       int64  `json:"seed"`
	RNGVersion int    `json:"rng_version"`
}

// replayRoundStarted is the merged deal record: the public frame once, plus
// all four starting hands.
type replayRoundStarted struct {
	RoundWind      int                `json:"round_wind"`
	RoundNumber    int                `json:"round_number"`
	DealerSeat     int                `json:"dealer_seat"`
	DoraIndicators []tile.Tile        `json:"dora_indicators"`
	Honba          int                `json:"honba"`
	RiichiSticks   int                `json:"riichi_sticks"`
	Hands          [4][]tile.Tile     `json:"hands"`
	Players        []event.PlayerInfo `json:"players"`
}

func NewReplayCollector(gameID string, seed int64) *ReplayCollector {
	rc := &ReplayCollector{}
	rc.append(replayRecord{Type: "header", Data: replayHeader{
		Version:    replayVersion,
		GameID:     gameID,
		Seed:       seed,
		RNGVersion: rngVersion,
	}})
	return rc
}

// Offer considers one event for the journal.
func (rc *ReplayCollector) Offer(ev event.Event) {
	switch ev.Type {
	case event.TypeCallPrompt, event.TypeError, event.TypeFuriten, event.TypeTurn,
		event.TypeChat, event.TypePong, event.TypeGameReconnected:
		return
	case event.TypeRoundStarted:
		rc.offerRoundStarted(ev.Data.(event.RoundStarted))
		return
	case event.TypeDraw:
		// Hints are a live-play convenience, not game history.
		d := ev.Data.(event.Draw)
		d.AvailableActions = nil
		rc.append(replayRecord{Type: ev.Type, Data: d})
		return
	}
	if ev.Target != event.Broadcast {
		return
	}
	rc.append(replayRecord{Type: ev.Type, Data: ev.Data})
}

func (rc *ReplayCollector) offerRoundStarted(rs event.RoundStarted) {
	rc.roundStarts = append(rc.roundStarts, rs)
	if len(rc.roundStarts) < 4 {
		return
	}
	merged := replayRoundStarted{
		RoundWind:      rs.RoundWind,
		RoundNumber:    rs.RoundNumber,
		DealerSeat:     rs.DealerSeat,
		DoraIndicators: rs.DoraIndicators,
		Honba:          rs.Honba,
		RiichiSticks:   rs.RiichiSticks,
		Players:        rs.Players,
	}
	for _, r := range rc.roundStarts {
		merged.Hands[r.Seat] = r.MyTiles
	}
	rc.roundStarts = rc.roundStarts[:0]
	rc.append(replayRecord{Type: event.TypeRoundStarted, Data: merged})
}

func (rc *ReplayCollector) append(rec replayRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		// Every payload type is a plain struct; this cannot fail in practice.
		return
	}
	rc.records = append(rc.records, b)
}

// Len is the number of journal records, header included.
func (rc *ReplayCollector) Len() int { return len(rc.records) }

// Bytes renders the journal as JSON lines.
func (rc *ReplayCollector) Bytes() []byte {
	var buf bytes.Buffer
	for _, r := range rc.records {
		buf.Write(r)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
