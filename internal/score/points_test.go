package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sum(d [4]int) int { return d[0] + d[1] + d[2] + d[3] }

func TestRonDeltasNonDealer(t *testing.T) {
	v := HandValue{Han: 1, Fu: 30}
	d := RonDeltas(v, 1, 0, 0, 0, 0, true, -1)
	assert.Equal(t, [4]int{-1000, 1000, 0, 0}, d)
	assert.Zero(t, sum(d))
}

func TestRonDeltasDealerManganWithHonbaAndSticks(t *testing.T) {
	v := HandValue{Han: 5, Fu: 40}
	d := RonDeltas(v, 0, 2, 0, 2, 1, true, -1)
	// 12000 + 2*300 honba + 1000 stick.
	assert.Equal(t, 13600, d[0])
	assert.Equal(t, -12600, d[2])
	assert.Equal(t, 1000, sum(d), "escrowed stick enters the table")
}

func TestRonDeltasNoHeadBonus(t *testing.T) {
	v := HandValue{Han: 2, Fu: 30}
	d := RonDeltas(v, 3, 0, 0, 0, 2, false, -1)
	assert.Equal(t, 2000, d[3], "second ron winner gets no sticks")
}

func TestRonDeltasKiriageMangan(t *testing.T) {
	v := HandValue{Han: 4, Fu: 40}
	d := RonDeltas(v, 1, 0, 0, 0, 0, true, -1)
	assert.Equal(t, 8000, d[1], "4 han 40 fu rounds up to mangan")
}

func TestRonDeltasLimitHands(t *testing.T) {
	cases := []struct {
		han, want int
	}{
		{6, 12000},  // haneman
		{8, 16000},  // baiman
		{11, 24000}, // sanbaiman
	}
	for _, c := range cases {
		d := RonDeltas(HandValue{Han: c.han, Fu: 30}, 1, 0, 0, 0, 0, true, -1)
		assert.Equal(t, c.want, d[1], "han %d", c.han)
	}

	d := RonDeltas(HandValue{Han: 13, Yakuman: 1}, 1, 0, 0, 0, 0, true, -1)
	assert.Equal(t, 32000, d[1])
	d = RonDeltas(HandValue{Han: 26, Yakuman: 2}, 1, 0, 0, 0, 0, true, -1)
	assert.Equal(t, 64000, d[1])
}

func TestRonDeltasPaoSplitsYakuman(t *testing.T) {
	v := HandValue{Han: 13, Yakuman: 1}
	d := RonDeltas(v, 1, 0, 3, 0, 0, true, 2)
	assert.Equal(t, 32000, d[1])
	assert.Equal(t, -16000, d[0])
	assert.Equal(t, -16000, d[2])
	assert.Zero(t, sum(d))

	// Liable seat discarding itself pays alone.
	d = RonDeltas(v, 1, 2, 3, 0, 0, true, 2)
	assert.Equal(t, -32000, d[2])
}

func TestTsumoDeltasNonDealer(t *testing.T) {
	v := HandValue{Han: 1, Fu: 30}
	d := TsumoDeltas(v, 1, 0, 0, 0, -1)
	assert.Equal(t, [4]int{-500, 1100, -300, -300}, d)
}

func TestTsumoDeltasDealer(t *testing.T) {
	v := HandValue{Han: 3, Fu: 30}
	d := TsumoDeltas(v, 0, 0, 0, 0, -1)
	// base 960, everyone pays roundUp100(1920) = 2000.
	assert.Equal(t, [4]int{6000, -2000, -2000, -2000}, d)
}

func TestTsumoDeltasHonbaAndSticks(t *testing.T) {
	v := HandValue{Han: 1, Fu: 30}
	d := TsumoDeltas(v, 1, 0, 2, 1, -1)
	assert.Equal(t, -500-200, d[0])
	assert.Equal(t, -300-200, d[2])
	assert.Equal(t, 1100+600+1000, d[1])
}

func TestTsumoDeltasPao(t *testing.T) {
	v := HandValue{Han: 13, Yakuman: 1}
	d := TsumoDeltas(v, 1, 0, 0, 0, 3)
	assert.Equal(t, [4]int{0, 32000, 0, -32000}, d)
}

func TestExhaustiveDrawDeltas(t *testing.T) {
	d := ExhaustiveDrawDeltas([4]bool{true, false, false, false})
	assert.Equal(t, [4]int{3000, -1000, -1000, -1000}, d)

	d = ExhaustiveDrawDeltas([4]bool{true, true, false, false})
	assert.Equal(t, [4]int{1500, 1500, -1500, -1500}, d)

	assert.Equal(t, [4]int{}, ExhaustiveDrawDeltas([4]bool{true, true, true, true}))
	assert.Equal(t, [4]int{}, ExhaustiveDrawDeltas([4]bool{}))
}

func TestNagashiDeltas(t *testing.T) {
	d := NagashiDeltas([]int{1}, 0)
	assert.Equal(t, [4]int{-4000, 8000, -2000, -2000}, d)

	d = NagashiDeltas([]int{0}, 0)
	assert.Equal(t, [4]int{12000, -4000, -4000, -4000}, d)

	// Two qualifying seats accumulate.
	d = NagashiDeltas([]int{1, 2}, 0)
	assert.Zero(t, sum(d))
	assert.Equal(t, -4000-4000, d[0])
}
