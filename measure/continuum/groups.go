package continuum

import (
	"github.com/cwbudde/algo-continuum/stats/robust"
)

// Group is an inclusive run [Start, End] of consecutive channel indices.
type Group struct {
	Start int
	End   int
}

// Len returns the number of channels in g.
func (g Group) Len() int { return g.End - g.Start + 1 }

// SplitContiguous splits sorted indices into maximal runs of consecutive
// integers.
func SplitContiguous(indices []int) []Group {
	if len(indices) == 0 {
		return nil
	}
	groups := make([]Group, 0, 4)
	cur := Group{Start: indices[0], End: indices[0]}
	for _, idx := range indices[1:] {
		if idx == cur.End+1 {
			cur.End = idx
			continue
		}
		groups = append(groups, cur)
		cur = Group{Start: idx, End: idx}
	}
	return append(groups, cur)
}

// Flatten expands groups back into a sorted index list.
func Flatten(groups []Group) []int {
	n := 0
	for _, g := range groups {
		n += g.Len()
	}
	out := make([]int, 0, n)
	for _, g := range groups {
		for i := g.Start; i <= g.End; i++ {
			out = append(out, i)
		}
	}
	return out
}

// RejectZeroVariance drops groups whose values are flat, and groups where
// more than 10% (and more than 3) of the values equal nanFill. Pass NaN as
// nanFill when no NaN replacement took place.
func RejectZeroVariance(groups []Group, values []float64, nanFill float64) []Group {
	out := groups[:0:0]
	for _, g := range groups {
		seg := values[g.Start : g.End+1]
		if robust.PopStdDev(seg) < zeroSpread {
			continue
		}
		filled := 0
		for _, v := range seg {
			if v == nanFill {
				filled++
			}
		}
		if filled > 3 && float64(filled)/float64(len(seg)) > 0.1 {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Trim removes channels from both ends of every group according to policy.
// Groups shorter than 1+2*trim are dropped.
func Trim(groups []Group, policy TrimPolicy, maxTrim int, maxTrimFraction float64) ([]Group, error) {
	rule, err := resolveTrim(policy, maxTrim, maxTrimFraction)
	if err != nil {
		return nil, err
	}
	return trimGroups(groups, rule), nil
}

func trimGroups(groups []Group, rule trimRule) []Group {
	out := groups[:0:0]
	for _, g := range groups {
		t := rule.amount(g.Len())
		if g.Len() < 1+2*t {
			continue
		}
		out = append(out, Group{Start: g.Start + t, End: g.End - t})
	}
	return out
}

// RejectNarrow drops groups narrower than the policy width for a spectrum
// of nchan channels. A single group is always kept.
func RejectNarrow(groups []Group, policy NarrowPolicy, nchan int) ([]Group, error) {
	minLen, err := resolveNarrow(policy, nchan)
	if err != nil {
		return nil, err
	}
	return rejectNarrowGroups(groups, minLen), nil
}

func rejectNarrowGroups(groups []Group, minLen int) []Group {
	if len(groups) <= 1 {
		return groups
	}
	out := groups[:0:0]
	for _, g := range groups {
		if g.Len() >= minLen {
			out = append(out, g)
		}
	}
	return out
}

// largestGroup returns the length of the widest group, or 0.
func largestGroup(groups []Group) int {
	w := 0
	for _, g := range groups {
		w = max(w, g.Len())
	}
	return w
}

// smallestGroup returns the length of the narrowest group, or 0.
func smallestGroup(groups []Group) int {
	if len(groups) == 0 {
		return 0
	}
	w := groups[0].Len()
	for _, g := range groups[1:] {
		w = min(w, g.Len())
	}
	return w
}
