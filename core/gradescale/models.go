package gradescale

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/asprotests/hums-sub000/core"
)

// FallbackLetter is returned when no band of a scale matches a percentage.
const FallbackLetter = "F"

// Definition maps an inclusive percentage band to a letter grade.
type Definition struct {
	ID            string  `json:"id,omitempty" yaml:"-"`
	Letter        string  `json:"letter" yaml:"letter" validate:"required,gradeletter"`
	MinPercentage float64 `json:"min_percentage" yaml:"min_percentage" validate:"gte=0,lte=100"`
	MaxPercentage float64 `json:"max_percentage" yaml:"max_percentage" validate:"gte=0,lte=100,gtefield=MinPercentage"`
	GradePoints   float64 `json:"grade_points" yaml:"grade_points" validate:"gte=0"`
	Description   string  `json:"description,omitempty" yaml:"description"`
}

func (d Definition) matches(pct float64) bool {
	return d.MinPercentage <= pct && pct <= d.MaxPercentage
}

type Scale struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	IsDefault   bool         `json:"is_default"`
	Definitions []Definition `json:"definitions"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at"` // UTC
}

// Resolution is the letter grade a percentage resolves to.
type Resolution struct {
	Letter      string  `json:"letter"`
	GradePoints float64 `json:"grade_points"`
	Description string  `json:"description,omitempty"`
}

// Resolve returns the first definition whose band contains pct.
// It is total: percentages matching no band (gaps, negatives, > 100, NaN) resolve to F with 0 points.
func (s Scale) Resolve(pct float64) Resolution {
	for _, def := range s.Definitions {
		if def.matches(pct) {
			return Resolution{Letter: def.Letter, GradePoints: def.GradePoints, Description: def.Description}
		}
	}
	return Resolution{Letter: FallbackLetter, GradePoints: 0}
}

// SortDefinitions orders definitions by descending MinPercentage, the lookup order of Scale.Resolve.
func SortDefinitions(defs []Definition) {
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].MinPercentage > defs[j].MinPercentage })
}

// NewScale contains information needed to create a new Scale.
type NewScale struct {
	Name        string       `json:"name" yaml:"name" validate:"required,max=100"`
	Description string       `json:"description" yaml:"description" validate:"max=500"`
	IsDefault   bool         `json:"is_default" yaml:"is_default"`
	Definitions []Definition `json:"definitions" yaml:"definitions" validate:"required,min=1,dive"`
}

func (ns *NewScale) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	cleanDefinitions(ns.Definitions)
	return validate.Struct(ns)
}

// UpdateScale defines what information may be provided to modify an existing Scale.
// Definitions replace all the existing ones.
type UpdateScale struct {
	Name        string       `json:"name" validate:"required,max=100"`
	Description string       `json:"description" validate:"max=500"`
	Definitions []Definition `json:"definitions" validate:"required,min=1,dive"`
}

func (us *UpdateScale) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Description = core.CleanString(us.Description)
	cleanDefinitions(us.Definitions)
	return validate.Struct(us)
}

func cleanDefinitions(defs []Definition) {
	for i := range defs {
		defs[i].Letter = core.CleanString(defs[i].Letter)
		defs[i].Description = core.CleanString(defs[i].Description)
	}
}
