package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runWithRanks(ranks ...int) *ScreenResult {
	run := &ScreenResult{}
	for _, r := range ranks {
		run.Results = append(run.Results, RankedResult{OverallRank: r})
	}
	return run
}

func TestRankedResult_IsTopRanked(t *testing.T) {
	r := RankedResult{OverallRank: 3}
	assert.True(t, r.IsTopRanked(3))
	assert.False(t, r.IsTopRanked(2))
	assert.False(t, (&RankedResult{}).IsTopRanked(5), "unranked")
}

func TestScreenResult_Top(t *testing.T) {
	run := runWithRanks(1, 2, 2, 4)

	assert.Len(t, run.Top(0), 4)
	assert.Len(t, run.Top(2), 2)
	assert.Len(t, run.Top(10), 4)
}

func TestScreenResult_TiedBeyond(t *testing.T) {
	tests := []struct {
		name  string
		ranks []int
		top   int
		want  int
	}{
		{"tie across cut", []int{1, 2, 2, 2, 5}, 2, 2},
		{"no tie", []int{1, 2, 3}, 2, 0},
		{"all shown", []int{1, 1}, 5, 0},
		{"no limit", []int{1, 1, 1}, 0, 0},
		{"tie at first place", []int{1, 1, 1, 4}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runWithRanks(tt.ranks...).TiedBeyond(tt.top))
		})
	}
}
