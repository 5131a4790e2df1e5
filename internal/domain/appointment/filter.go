package appointment

import (
	"slices"
)

// Bounds narrows candidate dates. Max is exclusive, Min is inclusive.
type Bounds struct {
	Min *Date
	Max *Date
}

func (b Bounds) Allows(d Date) bool {
	if b.Max != nil && !d.Before(*b.Max) {
		return false
	}
	if b.Min != nil && d.Before(*b.Min) {
		return false
	}
	return true
}

// Filter returns the candidates inside b, in their original order.
// The input slice is never modified.
func Filter(candidates []Date, b Bounds) []Date {
	out := make([]Date, 0, len(candidates))
	for _, c := range candidates {
		if b.Allows(c) {
			out = append(out, c)
		}
	}
	return out
}

// IsAscending reports whether dates are sorted earliest first.
func IsAscending(dates []Date) bool {
	return slices.IsSortedFunc(dates, Date.Compare)
}

// SortAscending returns a sorted copy of dates.
func SortAscending(dates []Date) []Date {
	out := slices.Clone(dates)
	slices.SortStableFunc(out, Date.Compare)
	return out
}
