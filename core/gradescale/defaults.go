package gradescale

const DefaultScaleName = "Standard"

// DefaultScale returns the 12-band scale installed when no default scale exists.
// Upper bounds end at .99 so that any percentage rounded to 2 decimals falls in exactly one band.
func DefaultScale() Scale {
	return Scale{
		Name:        DefaultScaleName,
		Description: "Standard 4.0 letter grade scale",
		IsDefault:   true,
		Definitions: []Definition{
			{Letter: "A+", MinPercentage: 95, MaxPercentage: 100, GradePoints: 4.0, Description: "Exceptional"},
			{Letter: "A", MinPercentage: 90, MaxPercentage: 94.99, GradePoints: 4.0, Description: "Excellent"},
			{Letter: "A-", MinPercentage: 87, MaxPercentage: 89.99, GradePoints: 3.7, Description: "Very good"},
			{Letter: "B+", MinPercentage: 84, MaxPercentage: 86.99, GradePoints: 3.3, Description: "Good"},
			{Letter: "B", MinPercentage: 80, MaxPercentage: 83.99, GradePoints: 3.0, Description: "Above average"},
			{Letter: "B-", MinPercentage: 77, MaxPercentage: 79.99, GradePoints: 2.7},
			{Letter: "C+", MinPercentage: 73, MaxPercentage: 76.99, GradePoints: 2.3},
			{Letter: "C", MinPercentage: 70, MaxPercentage: 72.99, GradePoints: 2.0, Description: "Satisfactory"},
			{Letter: "C-", MinPercentage: 67, MaxPercentage: 69.99, GradePoints: 1.7},
			{Letter: "D+", MinPercentage: 63, MaxPercentage: 66.99, GradePoints: 1.3},
			{Letter: "D", MinPercentage: 60, MaxPercentage: 62.99, GradePoints: 1.0, Description: "Poor"},
			{Letter: "F", MinPercentage: 0, MaxPercentage: 59.99, GradePoints: 0.0, Description: "Fail"},
		},
	}
}
