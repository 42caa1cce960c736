package continuum

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FormatGroups encodes groups as "start~end" ranges joined by sep.
func FormatGroups(groups []Group, sep string) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(strconv.Itoa(g.Start))
		b.WriteByte('~')
		b.WriteString(strconv.Itoa(g.End))
	}
	return b.String()
}

// IndicesToSelection encodes a channel list as a range selection. The input
// does not need to be sorted; duplicates are ignored.
func IndicesToSelection(indices []int, sep string) string {
	return FormatGroups(SplitContiguous(sortedUnique(indices)), sep)
}

// ParseSelection decodes a range selection into groups. Ranges may be
// separated by ';' or ',' and a bare integer is a one-channel range.
func ParseSelection(selection string) ([]Group, error) {
	fields := strings.FieldsFunc(selection, func(r rune) bool { return r == ';' || r == ',' })
	groups := make([]Group, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		lo, hi, found := strings.Cut(f, "~")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("%w: range %q", ErrInvalidSelection, f)
		}
		end := start
		if found {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("%w: range %q", ErrInvalidSelection, f)
			}
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("%w: range %q", ErrInvalidSelection, f)
		}
		groups = append(groups, Group{Start: start, End: end})
	}
	return groups, nil
}

// SelectionToIndices expands a range selection into a sorted, duplicate
// free channel list.
func SelectionToIndices(selection string) ([]int, error) {
	groups, err := ParseSelection(selection)
	if err != nil {
		return nil, err
	}
	return sortedUnique(Flatten(groups)), nil
}

func sortedUnique(indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}

// FrequencyRange is an inclusive frequency interval in Hz with Low <= High.
type FrequencyRange struct {
	Low  float64
	High float64
}

// ChannelToFrequency returns the centre frequency of channel ch.
func ChannelToFrequency(ch int, firstFreq, channelWidth float64) float64 {
	return firstFreq + float64(ch)*channelWidth
}

// GroupsToFrequencyRanges converts channel groups into frequency intervals
// spanning the outer channel edges.
func GroupsToFrequencyRanges(groups []Group, firstFreq, channelWidth float64) []FrequencyRange {
	out := make([]FrequencyRange, 0, len(groups))
	half := math.Abs(channelWidth) / 2
	for _, g := range groups {
		a := ChannelToFrequency(g.Start, firstFreq, channelWidth)
		b := ChannelToFrequency(g.End, firstFreq, channelWidth)
		if a > b {
			a, b = b, a
		}
		out = append(out, FrequencyRange{Low: a - half, High: b + half})
	}
	return out
}

// SelectionToFrequencyRanges parses selection and converts it with
// GroupsToFrequencyRanges.
func SelectionToFrequencyRanges(selection string, firstFreq, channelWidth float64) ([]FrequencyRange, error) {
	groups, err := ParseSelection(selection)
	if err != nil {
		return nil, err
	}
	return GroupsToFrequencyRanges(groups, firstFreq, channelWidth), nil
}
