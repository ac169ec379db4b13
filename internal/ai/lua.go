package ai

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/round"
	"github.com/mjgo/server/internal/tile"
)

// LuaStrategy drives a substitute seat from Lua scripts. One VM per strategy
// instance; the owning game loop is the only caller, so no locking.
//
// Script contract:
//
//	ai_turn(ctx)          -> { action = "discard"|..., tile_id = n }
//	ai_call_response(ctx) -> { action = "pass"|"ron"|"pon"|"chi"|"kan",
//	                           chi = {a, b} }
//
// Any missing function or script error falls back to the Tsumogiri baseline;
// a substitute must always produce a legal action.
type LuaStrategy struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback Tsumogiri
}

// NewLuaStrategy loads every .lua file in scriptsDir into a fresh VM.
func NewLuaStrategy(scriptsDir string, log *zap.Logger) (*LuaStrategy, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("read ai scripts %s: %w", scriptsDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(scriptsDir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.Debug("loaded lua script", zap.String("file", path))
	}
	return &LuaStrategy{vm: vm, log: log}, nil
}

func (l *LuaStrategy) Close() { l.vm.Close() }

func (l *LuaStrategy) Turn(r *round.Round, seat int, actions []event.AvailableAction) TurnAction {
	fn := l.vm.GetGlobal("ai_turn")
	if fn == lua.LNil {
		return l.fallback.Turn(r, seat, actions)
	}

	ctx := l.seatContext(r, seat)
	acts := l.vm.NewTable()
	for i, a := range actions {
		row := l.vm.NewTable()
		row.RawSetString("action", lua.LString(a.Action))
		row.RawSetString("tiles", l.tileTable(a.Tiles))
		acts.RawSetInt(i+1, row)
	}
	ctx.RawSetString("actions", acts)

	if err := l.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, ctx); err != nil {
		l.log.Error("lua ai_turn error", zap.Error(err), zap.Int("seat", seat))
		return l.fallback.Turn(r, seat, actions)
	}
	result := l.vm.Get(-1)
	l.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		l.log.Error("lua ai_turn returned non-table", zap.Int("seat", seat))
		return l.fallback.Turn(r, seat, actions)
	}

	act := TurnAction{
		Action: lStr(rt, "action"),
		Tile:   tile.Tile(lInt(rt, "tile_id")),
	}
	if !l.turnActionOffered(act, actions) {
		l.log.Warn("lua ai_turn chose unavailable action",
			zap.Int("seat", seat), zap.String("action", act.Action))
		return l.fallback.Turn(r, seat, actions)
	}
	if act.Action == event.ActDiscard && !r.Seats[seat].Holds(act.Tile) {
		return l.fallback.Turn(r, seat, actions)
	}
	return act
}

func (l *LuaStrategy) turnActionOffered(act TurnAction, actions []event.AvailableAction) bool {
	for _, a := range actions {
		if a.Action == act.Action {
			return true
		}
	}
	return false
}

func (l *LuaStrategy) CallResponse(r *round.Round, seat int, prompt event.CallPrompt) round.Response {
	fn := l.vm.GetGlobal("ai_call_response")
	if fn == lua.LNil {
		return l.fallback.CallResponse(r, seat, prompt)
	}

	ctx := l.seatContext(r, seat)
	ctx.RawSetString("call_type", lua.LString(prompt.CallType))
	ctx.RawSetString("tile_id", lua.LNumber(prompt.Tile))
	ctx.RawSetString("from_seat", lua.LNumber(prompt.FromSeat))
	for _, c := range prompt.Callers {
		if c.Seat != seat {
			continue
		}
		ctx.RawSetString("can_ron", lua.LBool(c.CanRon))
		ctx.RawSetString("can_pon", lua.LBool(c.CanPon))
		ctx.RawSetString("can_kan", lua.LBool(c.CanKan))
		chis := l.vm.NewTable()
		for i, o := range c.ChiOptions {
			chis.RawSetInt(i+1, l.tileTable(o[:]))
		}
		ctx.RawSetString("chi_options", chis)
	}

	if err := l.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, ctx); err != nil {
		l.log.Error("lua ai_call_response error", zap.Error(err), zap.Int("seat", seat))
		return l.fallback.CallResponse(r, seat, prompt)
	}
	result := l.vm.Get(-1)
	l.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return l.fallback.CallResponse(r, seat, prompt)
	}

	resp := round.Response{Seat: seat, Action: lStr(rt, "action")}
	if resp.Action == round.RespChi {
		if chi, ok := rt.RawGetString("chi").(*lua.LTable); ok {
			resp.ChiPair[0] = tile.Tile(lua.LVAsNumber(chi.RawGetInt(1)))
			resp.ChiPair[1] = tile.Tile(lua.LVAsNumber(chi.RawGetInt(2)))
		}
	}
	switch resp.Action {
	case round.RespPass, round.RespRon, round.RespPon, round.RespChi, round.RespKan:
		return resp
	}
	return l.fallback.CallResponse(r, seat, prompt)
}

// seatContext packs the seat's visible state into a Lua table.
func (l *LuaStrategy) seatContext(r *round.Round, seat int) *lua.LTable {
	s := r.Seats[seat]
	t := l.vm.NewTable()
	t.RawSetString("seat", lua.LNumber(seat))
	t.RawSetString("dealer", lua.LNumber(r.Dealer))
	t.RawSetString("round_wind", lua.LNumber(r.Wind))
	t.RawSetString("wall_remaining", lua.LNumber(r.Wall.Remaining()))
	t.RawSetString("riichi", lua.LBool(s.Riichi))
	t.RawSetString("score", lua.LNumber(s.Score))
	t.RawSetString("hand", l.tileTable(s.Concealed))
	if s.HasDrawn {
		t.RawSetString("drawn", lua.LNumber(s.DrawnTile))
	}
	t.RawSetString("dora_indicators", l.tileTable(r.Wall.DoraIndicators()))

	discards := l.vm.NewTable()
	for i, d := range s.Discards {
		discards.RawSetInt(i+1, lua.LNumber(d.Tile))
	}
	t.RawSetString("discards", discards)
	return t
}

func (l *LuaStrategy) tileTable(tiles []tile.Tile) *lua.LTable {
	t := l.vm.NewTable()
	for i, x := range tiles {
		t.RawSetInt(i+1, lua.LNumber(x))
	}
	return t
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}
