// Package event defines the server→client event vocabulary. Every state
// transition yields an ordered list of events; the session layer fans them out
// to connections and offers them to the replay collector.
package event

import (
	"github.com/mjgo/server/internal/score"
	"github.com/mjgo/server/internal/tile"
)

// Broadcast as a Target means every seat in the game (or room).
const Broadcast = -1

// Event couples a wire type tag with its payload and delivery target.
type Event struct {
	Type   string
	Target int // Broadcast or a seat 0..3
	Data   any
}

// Event type tags. These are the wire "type" values and the replay record
// kinds; renaming one is a protocol break.
const (
	TypeRoomJoined         = "room_joined"
	TypePlayerJoined       = "player_joined"
	TypePlayerLeft         = "player_left"
	TypePlayerReadyChanged = "player_ready_changed"
	TypeGameStarting       = "game_starting"
	TypeGameReconnected    = "game_reconnected"
	TypePlayerReconnected  = "player_reconnected"
	TypeRoomLeft           = "room_left"
	TypeGameLeft           = "game_left"
	TypePong               = "pong"
	TypeChat               = "chat"
	TypeError              = "error"

	TypeGameStarted    = "game_started"
	TypeRoundStarted   = "round_started"
	TypeDraw           = "draw"
	TypeDiscard        = "discard"
	TypeMeld           = "meld"
	TypeCallPrompt     = "call_prompt"
	TypeRiichiDeclared = "riichi_declared"
	TypeDoraRevealed   = "dora_revealed"
	TypeFuriten        = "furiten"
	TypeTurn           = "turn"
	TypeRoundEnd       = "round_end"
	TypeGameEnded      = "game_ended"
)

func bcast(t string, data any) Event      { return Event{Type: t, Target: Broadcast, Data: data} }
func toSeat(t string, s int, d any) Event { return Event{Type: t, Target: s, Data: d} }

// ── Game payloads ──

type PlayerInfo struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	IsAI  bool   `json:"is_ai"`
}

type GameStarted struct {
	GameID  string       `json:"game_id"`
	Players []PlayerInfo `json:"players"`
}

type RoundStarted struct {
	Seat           int          `json:"seat"`
	RoundWind      int          `json:"round_wind"`
	RoundNumber    int          `json:"round_number"`
	DealerSeat     int          `json:"dealer_seat"`
	CurrentSeat    int          `json:"current_seat"`
	DoraIndicators []tile.Tile  `json:"dora_indicators"`
	Honba          int          `json:"honba"`
	RiichiSticks   int          `json:"riichi_sticks"`
	MyTiles        []tile.Tile  `json:"my_tiles"`
	Players        []PlayerInfo `json:"players"`
}

// Action names attached to a Draw for the acting seat.
const (
	ActDiscard       = "discard"
	ActDeclareTsumo  = "declare_tsumo"
	ActDeclareRiichi = "declare_riichi"
	ActCallKanClosed = "call_kan_closed"
	ActCallKanAdded  = "call_kan_added"
	ActCallKyuushu   = "call_kyuushu"
)

type AvailableAction struct {
	Action string      `json:"action"`
	Tiles  []tile.Tile `json:"tiles,omitempty"` // riichi discards / kan tiles
}

type Draw struct {
	Seat             int               `json:"seat"`
	Tile             tile.Tile         `json:"tile_id"`
	WallRemaining    int               `json:"wall_remaining"`
	AvailableActions []AvailableAction `json:"available_actions,omitempty"`
}

type Discard struct {
	Seat        int       `json:"seat"`
	Tile        tile.Tile `json:"tile_id"`
	IsTsumogiri bool      `json:"is_tsumogiri"`
	IsRiichi    bool      `json:"is_riichi"`
}

type Meld struct {
	MeldType   string      `json:"meld_type"`
	CallerSeat int         `json:"caller_seat"`
	Tiles      []tile.Tile `json:"tile_ids"`
	FromSeat   *int        `json:"from_seat,omitempty"`
	CalledTile *tile.Tile  `json:"called_tile_id,omitempty"`
}

// Call prompt kinds.
const (
	CallMeld    = "meld"
	CallRon     = "ron"
	CallChankan = "chankan"
)

type CallerInfo struct {
	Seat       int            `json:"seat"`
	CanRon     bool           `json:"can_ron"`
	CanPon     bool           `json:"can_pon"`
	CanKan     bool           `json:"can_kan"`
	ChiOptions [][2]tile.Tile `json:"chi_options,omitempty"`
}

type CallPrompt struct {
	CallType string       `json:"call_type"`
	Tile     tile.Tile    `json:"tile_id"`
	FromSeat int          `json:"from_seat"`
	Callers  []CallerInfo `json:"callers"`
}

type RiichiDeclared struct {
	Seat int `json:"seat"`
}

// Turn announces that a seat must act without drawing (after a pon/chi).
type Turn struct {
	Seat int `json:"seat"`
}

type DoraRevealed struct {
	Tile tile.Tile `json:"tile_id"`
}

type Furiten struct {
	IsFuriten bool `json:"is_furiten"`
}

// Round end result kinds.
const (
	ResultTsumo          = "tsumo"
	ResultRon            = "ron"
	ResultDoubleRon      = "double_ron"
	ResultExhaustiveDraw = "exhaustive_draw"
	ResultNagashiMangan  = "nagashi_mangan"
	ResultAbortiveDraw   = "abortive_draw"
)

// Abortive draw reasons.
const (
	AbortFourWinds  = "four_winds"
	AbortFourRiichi = "four_riichi"
	AbortFourKans   = "four_kans"
	AbortTripleRon  = "triple_ron"
	AbortKyuushu    = "kyuushu_kyuuhai"
)

type WinDetail struct {
	Seat     int             `json:"seat"`
	Value    score.HandValue `json:"value"`
	Hand     []tile.Tile     `json:"hand"`
	WinTile  tile.Tile       `json:"win_tile"`
	UraShown []tile.Tile     `json:"ura_indicators,omitempty"`
}

type RoundEnd struct {
	Result       string      `json:"result"`
	AbortReason  string      `json:"abort_reason,omitempty"`
	Winners      []WinDetail `json:"winners,omitempty"`
	LoserSeat    *int        `json:"loser_seat,omitempty"`
	TenpaiSeats  []int       `json:"tenpai_seats,omitempty"`
	NagashiSeats []int       `json:"nagashi_seats,omitempty"`
	Deltas       [4]int      `json:"deltas"`
	Scores       [4]int      `json:"scores"`
	DealerRepeat bool        `json:"dealer_repeat"`
}

type Standing struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Place int    `json:"place"`
}

type GameEnded struct {
	WinnerSeat int        `json:"winner_seat"`
	Standings  []Standing `json:"standings"`
	NumRounds  int        `json:"num_rounds"`
}

// ── Reconnection snapshot ──

type DiscardSnapshot struct {
	Tile        tile.Tile `json:"tile_id"`
	IsTsumogiri bool      `json:"is_tsumogiri"`
	IsRiichi    bool      `json:"is_riichi"`
}

type SeatSnapshot struct {
	Seat      int               `json:"seat"`
	Name      string            `json:"name"`
	Score     int               `json:"score"`
	IsAI      bool              `json:"is_ai"`
	Riichi    bool              `json:"riichi"`
	HandCount int               `json:"hand_count"`
	Melds     []Meld            `json:"melds,omitempty"`
	Discards  []DiscardSnapshot `json:"discards,omitempty"`
}

// GameSnapshot is the full per-seat view sent on reconnection; the receiving
// client rebuilds its table from it instead of replaying events.
type GameSnapshot struct {
	GameID           string            `json:"game_id"`
	RoundWind        int               `json:"round_wind"`
	RoundNumber      int               `json:"round_number"`
	DealerSeat       int               `json:"dealer_seat"`
	CurrentSeat      int               `json:"current_seat"`
	Honba            int               `json:"honba"`
	RiichiSticks     int               `json:"riichi_sticks"`
	WallRemaining    int               `json:"wall_remaining"`
	DoraIndicators   []tile.Tile       `json:"dora_indicators"`
	Seats            []SeatSnapshot    `json:"seats"`
	MyTiles          []tile.Tile       `json:"my_tiles"`
	MyDrawn          *tile.Tile        `json:"my_drawn,omitempty"`
	AvailableActions []AvailableAction `json:"available_actions,omitempty"`
	Prompt           *CallPrompt       `json:"prompt,omitempty"`
	RoundResult      *RoundEnd         `json:"round_result,omitempty"`
}

// ── Session payloads ──

// GameStarting carries each seat's reconnection credential; the client must
// retain the token for the lifetime of the game.
type GameStarting struct {
	GameID       string `json:"game_id"`
	Seat         int    `json:"seat"`
	SessionToken string `json:"session_token"`
}

type RoomPlayerInfo struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

type RoomJoined struct {
	RoomID  string           `json:"room_id"`
	Players []RoomPlayerInfo `json:"players"`
	NumAI   int              `json:"num_ai_players"`
}

type PlayerJoined struct {
	Name           string `json:"name"`
	ConnectedCount int    `json:"connected_count"`
	ExpectedCount  int    `json:"expected_count"`
}

type PlayerReadyChanged struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Chat struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type PlayerLeft struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type PlayerReconnected struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

// Constructors keep call sites terse; every event flows through one of these.

func NewBroadcast(t string, data any) Event      { return bcast(t, data) }
func NewSeat(t string, seat int, data any) Event { return toSeat(t, seat, data) }

func NewError(seat int, code, message string) Event {
	return toSeat(TypeError, seat, Error{Code: code, Message: message})
}
