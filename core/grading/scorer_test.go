package grading

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreComponents(t *testing.T) {
	midterm := Component{ID: "mid", Name: "Midterm", MaxScore: 100, Weight: 40}
	final := Component{ID: "fin", Name: "Final", MaxScore: 100, Weight: 60}
	quiz := Component{ID: "quiz", Name: "Quiz", MaxScore: 20, Weight: 10}
	broken := Component{ID: "broken", Name: "Broken", MaxScore: 0, Weight: 10}

	tests := []struct {
		name       string
		components []Component
		entries    []Entry
		wantPcts   []float64
		wantTotal  float64
		wantErr    error
	}{
		{
			name:       "weighted",
			components: []Component{midterm, final},
			entries:    []Entry{{ComponentID: "mid", Score: 80}, {ComponentID: "fin", Score: 70}},
			wantPcts:   []float64{80, 70},
			wantTotal:  74,
		},
		{
			name:       "missing entry scores 0",
			components: []Component{midterm, final},
			entries:    []Entry{{ComponentID: "fin", Score: 70}},
			wantPcts:   []float64{0, 70},
			wantTotal:  42,
		},
		{
			name:       "first entry wins",
			components: []Component{quiz},
			entries:    []Entry{{ComponentID: "quiz", Score: 15}, {ComponentID: "quiz", Score: 20}},
			wantPcts:   []float64{75},
			wantTotal:  7.5,
		},
		{
			name:       "zero max score",
			components: []Component{broken, quiz},
			entries:    []Entry{{ComponentID: "broken", Score: 10}, {ComponentID: "quiz", Score: 20}},
			wantPcts:   []float64{0, 100},
			wantTotal:  10,
		},
		{
			name:       "rounded percentage",
			components: []Component{{ID: "c", Name: "C", MaxScore: 3, Weight: 100}},
			entries:    []Entry{{ComponentID: "c", Score: 2}},
			wantPcts:   []float64{66.67},
			wantTotal:  66.67,
		},
		{
			name:       "no components",
			components: nil,
			wantPcts:   []float64{},
			wantTotal:  0,
		},
		{
			name:       "NaN score",
			components: []Component{midterm},
			entries:    []Entry{{ComponentID: "mid", Score: math.NaN()}},
			wantErr:    ErrMalformedEntry,
		},
		{
			name:       "infinite weight",
			components: []Component{{ID: "c", Name: "C", MaxScore: 10, Weight: math.Inf(1)}},
			wantErr:    ErrMalformedEntry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := ScoreComponents(tt.components, tt.entries)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)

			pcts := make([]float64, 0, len(scores))
			for i, s := range scores {
				pcts = append(pcts, s.Percentage)
				assert.Equal(t, tt.components[i].ID, s.ComponentID, "order is preserved")
			}
			assert.Equal(t, tt.wantPcts, pcts)
			assert.Equal(t, tt.wantTotal, TotalPercentage(scores))
		})
	}
}

func TestTotalPercentageMatchesWeightedSum(t *testing.T) {
	comps := []Component{
		{ID: "a", MaxScore: 7, Weight: 33.3},
		{ID: "b", MaxScore: 13, Weight: 33.3},
		{ID: "c", MaxScore: 9, Weight: 33.4},
	}
	entries := []Entry{{ComponentID: "a", Score: 5}, {ComponentID: "b", Score: 11}, {ComponentID: "c", Score: 4}}

	scores, err := ScoreComponents(comps, entries)
	require.NoError(t, err)

	var sum float64
	for _, s := range scores {
		sum += s.WeightedScore
	}
	assert.InDelta(t, sum, TotalPercentage(scores), 0.01)
}
