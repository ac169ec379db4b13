package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
)

type bag struct {
	used [tile.NumTypes]int
}

func (b *bag) take(t *testing.T, tt tile.Type) tile.Tile {
	t.Helper()
	require.Less(t, b.used[tt], 4, "more than four copies of %v", tt)
	x := tile.Tile(int(tt)*4 + b.used[tt])
	b.used[tt]++
	return x
}

func (b *bag) tiles(t *testing.T, s string) []tile.Tile {
	t.Helper()
	var out []tile.Tile
	var digits []int
	flush := func(base int) {
		for _, d := range digits {
			out = append(out, b.take(t, tile.Type(base+d)))
		}
		digits = nil
	}
	for _, r := range s {
		switch r {
		case 'm':
			flush(0)
		case 'p':
			flush(9)
		case 's':
			flush(18)
		case 'z':
			flush(27)
		default:
			require.True(t, r >= '1' && r <= '9', "bad rune %q in %q", r, s)
			digits = append(digits, int(r-'1'))
		}
	}
	require.Empty(t, digits, "trailing digits in %q", s)
	return out
}

func yakuNames(v HandValue) map[string]int {
	out := make(map[string]int, len(v.Yaku))
	for _, y := range v.Yaku {
		out[y.Name] = y.Han
	}
	return out
}

func baseCtx(win tile.Tile, tsumo bool) Context {
	return Context{
		Seat:      1,
		Dealer:    0,
		RoundWind: tile.East,
		SeatWind:  tile.West,
		Tsumo:     tsumo,
		WinTile:   win,
	}
}

func TestEvaluatePinfuTsumo(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "23m456m789p234s99s")
	win := b.take(t, 3) // 4m on the 2-3 ryanmen

	v, err := Evaluate(concealed, nil, baseCtx(win, true))
	require.NoError(t, err)
	names := yakuNames(v)
	assert.Contains(t, names, "pinfu")
	assert.Contains(t, names, "menzen_tsumo")
	assert.Equal(t, 2, v.Han)
	assert.Equal(t, 20, v.Fu)
}

func TestEvaluateOpenTanyao(t *testing.T) {
	var b bag
	melds := []rules.Meld{{Kind: rules.Chi, Tiles: b.tiles(t, "234m"), Called: 0, From: 0}}
	concealed := b.tiles(t, "456p567p55s23s")
	win := b.take(t, 21) // 4s

	v, err := Evaluate(concealed, melds, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tanyao": 1}, yakuNames(v))
	assert.Equal(t, 1, v.Han)
	assert.Equal(t, 30, v.Fu, "open pinfu-shaped ron floors at 30")
}

func TestEvaluateChiitoi(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "1199m2288p3377s5z")
	win := b.take(t, tile.Haku)

	v, err := Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"chiitoitsu": 2}, yakuNames(v))
	assert.Equal(t, 25, v.Fu)
}

func TestEvaluateYakuhaiFu(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "234m456p789s555z2z")
	win := b.take(t, tile.South) // tanki on the south pair

	v, err := Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"yakuhai_haku": 1}, yakuNames(v))
	// 20 base +10 closed ron +8 concealed honor triplet +2 tanki.
	assert.Equal(t, 40, v.Fu)
}

func TestEvaluateNoYaku(t *testing.T) {
	var b bag
	melds := []rules.Meld{{Kind: rules.Chi, Tiles: b.tiles(t, "123m"), Called: 0, From: 3}}
	concealed := b.tiles(t, "456p678s55m23s")
	win := b.take(t, 21) // 4s

	_, err := Evaluate(concealed, melds, baseCtx(win, false))
	assert.ErrorIs(t, err, ErrNoYaku)
}

func TestEvaluateIncompleteHand(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "139m258p7s123456z")
	_, err := Evaluate(concealed, nil, baseCtx(b.take(t, 0), false))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoYaku)
}

func TestEvaluateDoraCounting(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "23m456m789p234s99s")
	win := b.take(t, 3) // second 4m

	ctx := baseCtx(win, true)
	ctx.Riichi = true
	ctx.DoraIndicators = []tile.Tile{b.take(t, 2)} // 3m indicator, dora 4m x2
	ctx.UraIndicators = []tile.Tile{b.take(t, 25)} // 8s indicator, ura 9s x2
	ctx.UseRedFives = true                         // first 5m copy is red

	v, err := Evaluate(concealed, nil, ctx)
	require.NoError(t, err)
	names := yakuNames(v)
	assert.Equal(t, 2, names["dora"])
	assert.Equal(t, 2, names["uradora"])
	assert.Equal(t, 1, names["akadora"])
	// riichi + tsumo + pinfu + 5 dora han.
	assert.Equal(t, 8, v.Han)
}

func TestEvaluateUraOnlyWithRiichi(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "23m456m789p234s99s")
	win := b.take(t, 3)

	ctx := baseCtx(win, true)
	ctx.UraIndicators = []tile.Tile{b.take(t, 25)}

	v, err := Evaluate(concealed, nil, ctx)
	require.NoError(t, err)
	assert.NotContains(t, yakuNames(v), "uradora")
}

func TestEvaluateKokushi(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "19m19p19s1234567z")
	win := b.take(t, tile.East)

	v, err := Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Yakuman, "thirteen-sided wait pays double")
	assert.Contains(t, yakuNames(v), "kokushi_musou_juusanmen")
	assert.Equal(t, 26, v.Han)

	b2 := bag{}
	concealed = b2.tiles(t, "119m19p19s123567z")
	win = b2.take(t, tile.North)
	v, err = Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, 1, v.Yakuman)
	assert.Contains(t, yakuNames(v), "kokushi_musou")
}

func TestEvaluateSuuankouTanki(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "111m222p333s999s5z")
	win := b.take(t, tile.Haku)

	v, err := Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Yakuman)
	assert.Contains(t, yakuNames(v), "suuankou_tanki")
}

func TestEvaluateRonTripletBreaksSuuankou(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "111m222p333s99s55z")
	win := b.take(t, 26) // third 9s by ron

	v, err := Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Yakuman, "ron-completed triplet is not concealed")
	names := yakuNames(v)
	assert.Contains(t, names, "sanankou")
	assert.Contains(t, names, "toitoi")
}

func TestEvaluateDaisangen(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "555666777z11m22p")
	win := b.take(t, 10) // third 2p

	v, err := Evaluate(concealed, nil, baseCtx(win, false))
	require.NoError(t, err)
	assert.Equal(t, 1, v.Yakuman)
	assert.Contains(t, yakuNames(v), "daisangen")
}

func TestEvaluateChankanIppatsuFlags(t *testing.T) {
	var b bag
	concealed := b.tiles(t, "234m567m66m34p456s")
	win := b.take(t, 13) // 5p

	ctx := baseCtx(win, false)
	ctx.Riichi = true
	ctx.Ippatsu = true
	ctx.Chankan = true

	v, err := Evaluate(concealed, nil, ctx)
	require.NoError(t, err)
	names := yakuNames(v)
	assert.Contains(t, names, "riichi")
	assert.Contains(t, names, "ippatsu")
	assert.Contains(t, names, "chankan")
	assert.Contains(t, names, "tanyao")
}
