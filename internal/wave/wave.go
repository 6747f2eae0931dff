// Package wave groups plans into ordered execution waves.
package wave

import (
	"sort"

	"github.com/gsd-build/gsd/internal/plan"
)

// Wave is the set of plans sharing a wave number. Plans within a wave have
// no ordering relative to each other; Units is sorted by ID for display.
type Wave struct {
	Number int
	Units  []plan.Unit
}

// Plan partitions units by wave number and returns the waves in ascending
// numeric order. Numbers need not be contiguous. Every unit lands in exactly
// one wave and the result depends only on the input set, not its order.
func Plan(units []plan.Unit) []Wave {
	byNumber := make(map[int][]plan.Unit)
	for _, u := range units {
		byNumber[u.Wave] = append(byNumber[u.Wave], u)
	}

	waves := make([]Wave, 0, len(byNumber))
	for n, us := range byNumber {
		sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
		waves = append(waves, Wave{Number: n, Units: us})
	}
	sort.Slice(waves, func(i, j int) bool { return waves[i].Number < waves[j].Number })
	return waves
}

// Numbers returns the wave numbers in order.
func Numbers(waves []Wave) []int {
	nums := make([]int, len(waves))
	for i, w := range waves {
		nums[i] = w.Number
	}
	return nums
}

// Count returns the number of units across all waves.
func Count(waves []Wave) int {
	n := 0
	for _, w := range waves {
		n += len(w.Units)
	}
	return n
}
