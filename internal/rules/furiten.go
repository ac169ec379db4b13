package rules

import "github.com/mjgo/server/internal/tile"

// DiscardFuriten reports whether any of the seat's own discards matches one of
// its current waits. A furiten seat may tsumo but never ron, on any wait.
func DiscardFuriten(waits []tile.Type, discards []tile.Tile) bool {
	if len(waits) == 0 {
		return false
	}
	set := make(map[tile.Type]bool, len(waits))
	for _, w := range waits {
		set[w] = true
	}
	for _, d := range discards {
		if set[d.Type()] {
			return true
		}
	}
	return false
}

// WaitsInclude reports whether tt is among waits.
func WaitsInclude(waits []tile.Type, tt tile.Type) bool {
	for _, w := range waits {
		if w == tt {
			return true
		}
	}
	return false
}
