package transcript

import (
	"time"

	"github.com/asprotests/hums-sub000/core/student"
)

type (
	Course struct {
		EnrollmentID string  `json:"enrollment_id"`
		Code         string  `json:"code"`
		Name         string  `json:"name"`
		Credits      int     `json:"credits"`
		Percentage   float64 `json:"percentage"`
		Letter       string  `json:"letter"`
		GradePoints  float64 `json:"grade_points"`
	}

	Semester struct {
		ID              string    `json:"id"`
		Name            string    `json:"name"`
		StartDate       time.Time `json:"start_date"`
		Courses         []Course  `json:"courses"`
		SemesterCredits int       `json:"semester_credits"`
		SemesterPoints  float64   `json:"semester_points"`
		SemesterGPA     float64   `json:"semester_gpa"`
	}

	Cumulative struct {
		Credits int     `json:"credits"`
		Points  float64 `json:"points"`
		GPA     float64 `json:"gpa"`
	}

	// Transcript is assembled on demand from finalized enrollments; it is never stored.
	Transcript struct {
		Student     student.Student `json:"student"`
		Semesters   []Semester      `json:"semesters"`
		Cumulative  Cumulative      `json:"cumulative"`
		GeneratedAt time.Time       `json:"generated_at"` // UTC
		IsOfficial  bool            `json:"is_official"`
	}
)

// CourseCount returns the number of course lines over all semesters.
func (t Transcript) CourseCount() int {
	var n int
	for _, s := range t.Semesters {
		n += len(s.Courses)
	}
	return n
}
