package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(y int, m time.Month, day int) Date { return NewDate(y, m, day) }

func ptr(x Date) *Date { return &x }

func TestFilterMaxIsExclusive(t *testing.T) {
	current := d(2024, time.June, 1)
	in := []Date{d(2024, time.May, 10), d(2024, time.May, 20), d(2024, time.June, 1), d(2024, time.June, 15)}

	got := Filter(in, Bounds{Max: &current})
	assert.Equal(t, []Date{d(2024, time.May, 10), d(2024, time.May, 20)}, got)
}

func TestFilterMinIsInclusive(t *testing.T) {
	in := []Date{d(2024, time.May, 10), d(2024, time.May, 20), d(2024, time.June, 15)}
	got := Filter(in, Bounds{Min: ptr(d(2024, time.May, 20))})
	assert.Equal(t, []Date{d(2024, time.May, 20), d(2024, time.June, 15)}, got)
}

func TestFilterInvertedRangeIsEmpty(t *testing.T) {
	in := []Date{d(2024, time.May, 10), d(2024, time.May, 20), d(2024, time.June, 15)}
	got := Filter(in, Bounds{Min: ptr(d(2024, time.June, 1)), Max: ptr(d(2024, time.May, 1))})
	assert.Empty(t, got)
}

func TestFilterKeepsOrderAndInput(t *testing.T) {
	in := []Date{d(2024, time.May, 20), d(2024, time.May, 10), d(2024, time.July, 1)}
	snapshot := append([]Date(nil), in...)

	got := Filter(in, Bounds{Max: ptr(d(2024, time.June, 1))})
	assert.Equal(t, []Date{d(2024, time.May, 20), d(2024, time.May, 10)}, got)
	assert.Equal(t, snapshot, in)
}

func TestSortAscending(t *testing.T) {
	in := []Date{d(2024, time.May, 20), d(2024, time.May, 10)}
	assert.False(t, IsAscending(in))

	sorted := SortAscending(in)
	assert.True(t, IsAscending(sorted))
	assert.Equal(t, d(2024, time.May, 20), in[0])
}
