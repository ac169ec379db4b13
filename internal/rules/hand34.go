package rules

import (
	"sync"

	"github.com/mjgo/server/internal/tile"
)

// Hand34 is a per-type tile count vector. All completion and shanten search
// runs on counts; physical tile IDs only matter again at the meld/discard
// boundary.
type Hand34 [tile.NumTypes]uint8

func CountTypes(tiles []tile.Tile) Hand34 {
	var h Hand34
	for _, t := range tiles {
		h[t.Type()]++
	}
	return h
}

func (h Hand34) key(fixedMelds int) string {
	var b [tile.NumTypes + 1]byte
	for i := 0; i < tile.NumTypes; i++ {
		b[i] = h[i]
	}
	b[tile.NumTypes] = byte(fixedMelds)
	return string(b[:])
}

// Completion results are memoized process-wide; the vectors repeat heavily
// across games.
var (
	cacheMu    sync.RWMutex
	agariCache = make(map[string]bool, 4096)
	waitsCache = make(map[string][]tile.Type, 4096)
)

// IsAgari reports whether counts plus fixedMelds complete a winning hand
// (standard shape, chiitoitsu, or kokushi; the latter two only when closed).
func IsAgari(h Hand34, fixedMelds int) bool {
	key := h.key(fixedMelds)
	cacheMu.RLock()
	if v, ok := agariCache[key]; ok {
		cacheMu.RUnlock()
		return v
	}
	cacheMu.RUnlock()

	ok := isAgariStandard(h, fixedMelds)
	if !ok && fixedMelds == 0 {
		ok = isAgariChiitoi(h) || IsAgariKokushi(h)
	}

	cacheMu.Lock()
	agariCache[key] = ok
	cacheMu.Unlock()
	return ok
}

func isAgariStandard(h Hand34, fixedMelds int) bool {
	need := 4 - fixedMelds
	if need < 0 {
		return false
	}
	for p := 0; p < tile.NumTypes; p++ {
		if h[p] < 2 {
			continue
		}
		work := h
		work[p] -= 2
		if formsMelds(&work, need) {
			return true
		}
	}
	return false
}

func isAgariChiitoi(h Hand34) bool {
	pairs := 0
	for i := 0; i < tile.NumTypes; i++ {
		if h[i] == 2 {
			pairs++
		}
	}
	return pairs == 7
}

// IsAgariKokushi reports thirteen orphans completion: all thirteen yaochuu
// types present with one of them paired.
func IsAgariKokushi(h Hand34) bool {
	pair := false
	for _, tt := range tile.Kokushi {
		switch {
		case h[tt] == 0:
			return false
		case h[tt] >= 2:
			pair = true
		}
	}
	return pair
}

func formsMelds(h *Hand34, need int) bool {
	if need == 0 {
		for i := 0; i < tile.NumTypes; i++ {
			if h[i] != 0 {
				return false
			}
		}
		return true
	}
	i := -1
	for k := 0; k < tile.NumTypes; k++ {
		if h[k] > 0 {
			i = k
			break
		}
	}
	if i == -1 {
		return false
	}
	if h[i] >= 3 {
		h[i] -= 3
		if formsMelds(h, need-1) {
			h[i] += 3
			return true
		}
		h[i] += 3
	}
	tt := tile.Type(i)
	if !tt.IsHonor() && tt.Number() <= 7 {
		if h[i] > 0 && h[i+1] > 0 && h[i+2] > 0 {
			h[i]--
			h[i+1]--
			h[i+2]--
			if formsMelds(h, need-1) {
				h[i]++
				h[i+1]++
				h[i+2]++
				return true
			}
			h[i]++
			h[i+1]++
			h[i+2]++
		}
	}
	return false
}

// Waits enumerates the tile types that complete a 13-mod-3 hand.
func Waits(h Hand34, fixedMelds int) []tile.Type {
	key := h.key(fixedMelds)
	cacheMu.RLock()
	if v, ok := waitsCache[key]; ok {
		cacheMu.RUnlock()
		return append([]tile.Type(nil), v...)
	}
	cacheMu.RUnlock()

	var waits []tile.Type
	for t := 0; t < tile.NumTypes; t++ {
		if h[t] >= 4 {
			continue
		}
		work := h
		work[t]++
		if IsAgari(work, fixedMelds) {
			waits = append(waits, tile.Type(t))
		}
	}

	cacheMu.Lock()
	waitsCache[key] = append([]tile.Type(nil), waits...)
	cacheMu.Unlock()
	return waits
}

// IsTenpai reports whether the 13-shaped hand is one tile from completion.
func IsTenpai(h Hand34, fixedMelds int) bool {
	return len(Waits(h, fixedMelds)) > 0
}

// KokushiWaits returns the waits of a closed 13-tile hand restricted to the
// kokushi shape, used for robbing a closed kan (only kokushi may chankan one).
func KokushiWaits(h Hand34) []tile.Type {
	var waits []tile.Type
	for _, tt := range tile.Kokushi {
		work := h
		if work[tt] >= 4 {
			continue
		}
		work[tt]++
		if IsAgariKokushi(work) {
			waits = append(waits, tt)
		}
	}
	return waits
}
