package gradescale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale_Resolve(t *testing.T) {
	scale := DefaultScale()
	gappy := Scale{Definitions: []Definition{
		{Letter: "P", MinPercentage: 50, MaxPercentage: 100, GradePoints: 1},
		{Letter: "X", MinPercentage: 0, MaxPercentage: 40, GradePoints: 0.5},
	}}

	tests := []struct {
		name       string
		scale      Scale
		pct        float64
		wantLetter string
		wantPoints float64
	}{
		{name: "top", scale: scale, pct: 100, wantLetter: "A+", wantPoints: 4.0},
		{name: "A+ lower bound", scale: scale, pct: 95, wantLetter: "A+", wantPoints: 4.0},
		{name: "A upper bound", scale: scale, pct: 94.99, wantLetter: "A", wantPoints: 4.0},
		{name: "C+", scale: scale, pct: 74, wantLetter: "C+", wantPoints: 2.3},
		{name: "C", scale: scale, pct: 72.99, wantLetter: "C", wantPoints: 2.0},
		{name: "D", scale: scale, pct: 60, wantLetter: "D", wantPoints: 1.0},
		{name: "F", scale: scale, pct: 59.99, wantLetter: "F", wantPoints: 0},
		{name: "zero", scale: scale, pct: 0, wantLetter: "F", wantPoints: 0},
		{name: "negative", scale: scale, pct: -5, wantLetter: FallbackLetter, wantPoints: 0},
		{name: "over 100", scale: scale, pct: 100.5, wantLetter: FallbackLetter, wantPoints: 0},
		{name: "NaN", scale: scale, pct: math.NaN(), wantLetter: FallbackLetter, wantPoints: 0},
		{name: "+Inf", scale: scale, pct: math.Inf(1), wantLetter: FallbackLetter, wantPoints: 0},
		{name: "-Inf", scale: scale, pct: math.Inf(-1), wantLetter: FallbackLetter, wantPoints: 0},
		{name: "gap", scale: gappy, pct: 45, wantLetter: FallbackLetter, wantPoints: 0},
		{name: "below gap", scale: gappy, pct: 40, wantLetter: "X", wantPoints: 0.5},
		{name: "empty scale", scale: Scale{}, pct: 80, wantLetter: FallbackLetter, wantPoints: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.scale.Resolve(tt.pct)
			assert.Equal(t, tt.wantLetter, res.Letter)
			assert.Equal(t, tt.wantPoints, res.GradePoints)
		})
	}
}

func TestSortDefinitions(t *testing.T) {
	defs := []Definition{
		{Letter: "F", MinPercentage: 0},
		{Letter: "A", MinPercentage: 90},
		{Letter: "C", MinPercentage: 70},
	}
	SortDefinitions(defs)

	letters := make([]string, 0, len(defs))
	for _, d := range defs {
		letters = append(letters, d.Letter)
	}
	assert.Equal(t, []string{"A", "C", "F"}, letters)
}

func TestDefaultScaleBands(t *testing.T) {
	defs := DefaultScale().Definitions
	assert.Len(t, defs, 12)
	assert.Empty(t, checkBands(defs))
}

func TestCheckBands(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
		want string
	}{
		{
			name: "valid",
			defs: []Definition{
				{Letter: "P", MinPercentage: 50, MaxPercentage: 100},
				{Letter: "F", MinPercentage: 0, MaxPercentage: 49.99},
			},
		},
		{
			name: "duplicate letter",
			defs: []Definition{
				{Letter: "P", MinPercentage: 50, MaxPercentage: 100},
				{Letter: "P", MinPercentage: 0, MaxPercentage: 49.99},
			},
			want: lettersUniqueTag,
		},
		{
			name: "overlap",
			defs: []Definition{
				{Letter: "P", MinPercentage: 50, MaxPercentage: 100},
				{Letter: "F", MinPercentage: 0, MaxPercentage: 50},
			},
			want: bandsOverlapTag,
		},
		{
			name: "inner gap",
			defs: []Definition{
				{Letter: "P", MinPercentage: 50, MaxPercentage: 100},
				{Letter: "F", MinPercentage: 0, MaxPercentage: 49},
			},
			want: bandsGapTag,
		},
		{
			name: "does not start at 0",
			defs: []Definition{{Letter: "P", MinPercentage: 10, MaxPercentage: 100}},
			want: bandsGapTag,
		},
		{
			name: "does not reach 100",
			defs: []Definition{{Letter: "P", MinPercentage: 0, MaxPercentage: 99}},
			want: bandsGapTag,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkBands(tt.defs))
		})
	}
}
