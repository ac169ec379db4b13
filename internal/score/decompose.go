package score

import (
	"github.com/mjgo/server/internal/rules"
	"github.com/mjgo/server/internal/tile"
)

type GroupKind int

const (
	GroupPair GroupKind = iota
	GroupRun
	GroupTriplet
	GroupKan
)

// Group is one element of a decomposed winning hand. T is the lowest type of
// a run, the shared type otherwise.
type Group struct {
	Kind      GroupKind
	T         tile.Type
	Concealed bool // false for called melds and the ron-completed triplet
	HasWin    bool // contains the winning tile
}

// decompose enumerates every standard decomposition of the concealed part of
// a winning hand (melds are appended as fixed groups). Returns nil when the
// hand is not a standard shape (chiitoi/kokushi are handled separately).
func decompose(concealed rules.Hand34, melds []rules.Meld, winType tile.Type, tsumo bool) [][]Group {
	var fixed []Group
	for _, m := range melds {
		g := Group{T: m.Type(), Concealed: !m.Kind.Open()}
		switch m.Kind {
		case rules.Chi:
			g.Kind = GroupRun
		case rules.Pon:
			g.Kind = GroupTriplet
		default:
			g.Kind = GroupKan
		}
		fixed = append(fixed, g)
	}

	need := 4 - len(melds)
	var all [][]Group
	for p := 0; p < tile.NumTypes; p++ {
		if concealed[p] < 2 {
			continue
		}
		work := concealed
		work[p] -= 2
		var groups []Group
		enumGroups(&work, need, groups, func(gs []Group) {
			full := make([]Group, 0, len(gs)+len(fixed)+1)
			full = append(full, Group{Kind: GroupPair, T: tile.Type(p), Concealed: true})
			full = append(full, gs...)
			full = append(full, fixed...)
			all = append(all, markWin(full, winType, tsumo)...)
		})
	}
	return all
}

func enumGroups(h *rules.Hand34, need int, acc []Group, emit func([]Group)) {
	if need == 0 {
		for i := 0; i < tile.NumTypes; i++ {
			if h[i] != 0 {
				return
			}
		}
		emit(append([]Group(nil), acc...))
		return
	}
	i := -1
	for k := 0; k < tile.NumTypes; k++ {
		if h[k] > 0 {
			i = k
			break
		}
	}
	if i == -1 {
		return
	}
	if h[i] >= 3 {
		h[i] -= 3
		enumGroups(h, need-1, append(acc, Group{Kind: GroupTriplet, T: tile.Type(i), Concealed: true}), emit)
		h[i] += 3
	}
	tt := tile.Type(i)
	if !tt.IsHonor() && tt.Number() <= 7 && h[i] > 0 && h[i+1] > 0 && h[i+2] > 0 {
		h[i]--
		h[i+1]--
		h[i+2]--
		enumGroups(h, need-1, append(acc, Group{Kind: GroupRun, T: tt, Concealed: true}), emit)
		h[i]++
		h[i+1]++
		h[i+2]++
	}
}

// markWin produces one variant per concealed group that can contain the
// winning tile. On ron the containing triplet counts as open for fu and
// suuankou purposes; runs and pairs stay concealed.
func markWin(groups []Group, winType tile.Type, tsumo bool) [][]Group {
	var out [][]Group
	for i, g := range groups {
		if !g.Concealed || g.Kind == GroupKan {
			continue
		}
		var holds bool
		switch g.Kind {
		case GroupPair, GroupTriplet:
			holds = g.T == winType
		case GroupRun:
			holds = winType >= g.T && winType <= g.T+2 && winType.Suit() == g.T.Suit()
		}
		if !holds {
			continue
		}
		v := append([]Group(nil), groups...)
		v[i].HasWin = true
		if !tsumo && v[i].Kind == GroupTriplet {
			v[i].Concealed = false
		}
		out = append(out, v)
	}
	return out
}
