package grading

import (
	"math"

	"github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core"
)

var ErrMalformedEntry = errors.New("malformed grade data")

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ScoreComponents scores every component, in order, from the enrollment's entries.
// The first entry of a component is used; a component without entry scores 0.
// A zero (or negative) max score yields a 0 percentage.
func ScoreComponents(components []Component, entries []Entry) ([]ComponentScore, error) {
	scores := make([]ComponentScore, 0, len(components))
	for _, comp := range components {
		var score float64
		for _, entry := range entries {
			if entry.ComponentID == comp.ID {
				score = entry.Score
				break
			}
		}
		if !isFinite(score, comp.MaxScore, comp.Weight) {
			return nil, errors.Wrapf(ErrMalformedEntry, "component %q", comp.Name)
		}

		var pct float64
		if comp.MaxScore > 0 {
			pct = (score / comp.MaxScore) * 100
		}
		scores = append(scores, ComponentScore{
			ComponentID:   comp.ID,
			ComponentName: comp.Name,
			Score:         score,
			MaxScore:      comp.MaxScore,
			Weight:        comp.Weight,
			WeightedScore: pct * comp.Weight / 100,
			Percentage:    core.Round2(pct),
		})
	}
	return scores, nil
}

// TotalPercentage sums the weighted scores, rounded to 2 decimals.
func TotalPercentage(scores []ComponentScore) float64 {
	var total float64
	for _, s := range scores {
		total += s.WeightedScore
	}
	return core.Round2(total)
}
