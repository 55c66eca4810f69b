package grading

import (
	"context"
	"time"

	"github.com/asprotests/hums-sub000/core"
)

// Status is an enrollment's registration status.
type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusWithdrawn  Status = "WITHDRAWN"
)

var (
	// errors
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrClassNotFound      = core.NewNotFoundError("class")
)

type Course struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}

type Semester struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Component is a weighted, scored piece of coursework of a class.
// Weights of a class's components are expected, not enforced, to sum to 100.
type Component struct {
	ID       string     `json:"id"`
	ClassID  string     `json:"class_id"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	MaxScore float64    `json:"max_score"`
	Weight   float64    `json:"weight"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// Entry is one recorded score of a component for an enrollment.
type Entry struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	ComponentID  string    `json:"component_id"`
	Score        float64   `json:"score"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Class struct {
	ID         string      `json:"id"`
	SemesterID string      `json:"semester_id"`
	Section    string      `json:"section,omitempty"`
	Course     Course      `json:"course"`
	Components []Component `json:"components,omitempty"` // ordered
}

// Enrollment is a student's registration in one class for one semester; it carries the finalized grade.
type Enrollment struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	ClassID         string     `json:"class_id"`
	SemesterID      string     `json:"semester_id"`
	Status          Status     `json:"status"`
	FinalPercentage *float64   `json:"final_percentage"`
	FinalGrade      *string    `json:"final_grade"`
	GradePoints     *float64   `json:"grade_points"`
	IsFinalized     bool       `json:"is_finalized"`
	FinalizedAt     *time.Time `json:"finalized_at"`
	FinalizedByID   *string    `json:"finalized_by_id"`
	EnrolledAt      time.Time  `json:"enrolled_at"` // UTC

	// relations
	Class    Class    `json:"class"`
	Semester Semester `json:"semester"`
	Entries  []Entry  `json:"entries,omitempty"`
}

// Credits returns the course credits of the enrollment's class.
func (e Enrollment) Credits() int {
	return e.Class.Course.Credits
}

// Points returns the recorded grade points, 0 if none.
func (e Enrollment) Points() float64 {
	if e.GradePoints == nil {
		return 0
	}
	return *e.GradePoints
}

func (e Enrollment) HasFinalGrade() bool {
	return e.FinalGrade != nil
}

func (e Enrollment) HasStatus(statuses ...Status) bool {
	for _, s := range statuses {
		if e.Status == s {
			return true
		}
	}
	return false
}

// ComponentScore is the scoring of one component for one enrollment.
type ComponentScore struct {
	ComponentID   string  `json:"component_id"`
	ComponentName string  `json:"component_name"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weighted_score"`
	Percentage    float64 `json:"percentage"` // rounded to 2 decimals
}

// CalculatedGrade is the live computation of an enrollment's final grade.
type CalculatedGrade struct {
	EnrollmentID    string           `json:"enrollment_id"`
	StudentID       string           `json:"student_id"`
	ClassID         string           `json:"class_id"`
	Components      []ComponentScore `json:"components"`
	TotalPercentage float64          `json:"total_percentage"`
	Letter          string           `json:"letter"`
	GradePoints     float64          `json:"grade_points"`
	Description     string           `json:"description,omitempty"`
}

// Finalization is the write applied to an enrollment when its class is finalized.
type Finalization struct {
	EnrollmentID    string
	FinalPercentage float64
	FinalGrade      string
	GradePoints     float64
	FinalizedAt     time.Time
	FinalizedByID   string
}

// EnrollmentFilter applies AND operation on its set fields.
type EnrollmentFilter struct {
	ClassID    string
	StudentID  string
	SemesterID string
	Statuses   []Status
	GradedOnly bool // FinalGrade is not null
}

type Repository interface {
	// GetEnrollment loads the enrollment with its class, course, ordered components, semester and entries.
	GetEnrollment(ctx context.Context, id string) (Enrollment, error)
	GetClass(ctx context.Context, id string) (Class, error)
	// QueryEnrollments loads matching enrollments with their class, course and semester (no entries),
	// in enrollment order.
	QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
	// FinalizeEnrollments applies all finalizations in one transaction: all or nothing.
	FinalizeEnrollments(ctx context.Context, fins []Finalization) error
	// UnfinalizeClass clears the finalize flags of every enrollment of the class in one statement,
	// leaving percentages, letters and points in place. It returns the number of affected enrollments.
	UnfinalizeClass(ctx context.Context, classID string) (int, error)
}
