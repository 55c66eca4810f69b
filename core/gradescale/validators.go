package gradescale

import (
	"math"
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/asprotests/hums-sub000/core"
)

var (
	bandsOverlapTag  = "bandsoverlap"
	bandsOverlapText = "grade bands must not overlap"

	bandsGapTag  = "bandsgap"
	bandsGapText = "grade bands must cover 0 to 100 without gaps"

	lettersUniqueTag  = "lettersunique"
	lettersUniqueText = "grade letters must be unique"
)

// InitValidators registers the grade scale validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(scaleStructValidation, NewScale{}, UpdateScale{})
	core.RegisterCustomTranslation(validate, translator, bandsOverlapTag, bandsOverlapText)
	core.RegisterCustomTranslation(validate, translator, bandsGapTag, bandsGapText)
	core.RegisterCustomTranslation(validate, translator, lettersUniqueTag, lettersUniqueText)
}

// scaleStructValidation does struct level validation on NewScale and UpdateScale structs.
func scaleStructValidation(sl validator.StructLevel) {
	var defs []Definition
	switch s := sl.Current().Interface().(type) {
	case NewScale:
		defs = s.Definitions
	case UpdateScale:
		defs = s.Definitions
	}
	if len(defs) == 0 {
		return // reported by `required`
	}
	if tag := checkBands(defs); tag != "" {
		sl.ReportError(defs, "definitions", "Definitions", tag, "")
	}
}

func cents(pct float64) int64 {
	return int64(math.Round(pct * 100))
}

// checkBands returns the tag of the first band violation found, or "".
// Bands are compared at 0.01 resolution since percentages are rounded to 2 decimals before lookup.
func checkBands(defs []Definition) string {
	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPercentage < sorted[j].MinPercentage })

	letters := make(map[string]struct{}, len(sorted))
	for _, def := range sorted {
		if _, ok := letters[def.Letter]; ok {
			return lettersUniqueTag
		}
		letters[def.Letter] = struct{}{}
	}

	if cents(sorted[0].MinPercentage) > 0 {
		return bandsGapTag
	}
	for i := 1; i < len(sorted); i++ {
		prevMax, min := cents(sorted[i-1].MaxPercentage), cents(sorted[i].MinPercentage)
		if min <= prevMax {
			return bandsOverlapTag
		}
		if min > prevMax+1 {
			return bandsGapTag
		}
	}
	if cents(sorted[len(sorted)-1].MaxPercentage) < 100*100 {
		return bandsGapTag
	}
	return ""
}
