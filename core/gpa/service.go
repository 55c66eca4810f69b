package gpa

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/student"
)

type (
	EnrollmentQuerier interface {
		QueryEnrollments(ctx context.Context, filter grading.EnrollmentFilter) ([]grading.Enrollment, error)
	}

	// Service aggregates finalized grades into grade point averages.
	Service struct {
		enrollments EnrollmentQuerier
		students    student.Repository
	}

	Details struct {
		CumulativeGPA   float64 `json:"cumulative_gpa"`
		SemesterGPA     float64 `json:"semester_gpa"`
		TotalCredits    int     `json:"total_credits"`
		TotalPoints     float64 `json:"total_points"`
		SemesterCredits int     `json:"semester_credits"`
		SemesterPoints  float64 `json:"semester_points"`
	}
)

func NewService(enrollments EnrollmentQuerier, students student.Repository) *Service {
	return &Service{
		enrollments: enrollments,
		students:    students,
	}
}

// Sum returns the credits and the credit-weighted grade points of enrs.
// Missing grade points count as 0, their credits are still summed.
func Sum(enrs []grading.Enrollment) (credits int, points float64) {
	for _, e := range enrs {
		credits += e.Credits()
		points += float64(e.Credits()) * e.Points()
	}
	return credits, points
}

// Compute returns round2(points / credits), 0 without credits.
func Compute(credits int, points float64) float64 {
	return core.SafeRatio(points, float64(credits))
}

func (svc *Service) query(ctx context.Context, filter grading.EnrollmentFilter) ([]grading.Enrollment, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(filter.StudentID, "studentID"),
	).Check(); err != nil {
		return nil, core.NewBadRequestError(err.Error())
	}
	filter.GradedOnly = true
	enrs, err := svc.enrollments.QueryEnrollments(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "querying graded enrollments of student %s", filter.StudentID)
	}
	return enrs, nil
}

// SemesterGPA averages the student's graded COMPLETED or REGISTERED enrollments of the semester.
func (svc *Service) SemesterGPA(ctx context.Context, studentID, semesterID string) (float64, error) {
	enrs, err := svc.query(ctx, grading.EnrollmentFilter{
		StudentID:  studentID,
		SemesterID: semesterID,
		Statuses:   []grading.Status{grading.StatusCompleted, grading.StatusRegistered},
	})
	if err != nil {
		return 0, err
	}
	return Compute(Sum(enrs)), nil
}

// CumulativeGPA averages all the student's graded COMPLETED enrollments.
func (svc *Service) CumulativeGPA(ctx context.Context, studentID string) (float64, error) {
	enrs, err := svc.query(ctx, grading.EnrollmentFilter{
		StudentID: studentID,
		Statuses:  []grading.Status{grading.StatusCompleted},
	})
	if err != nil {
		return 0, err
	}
	return Compute(Sum(enrs)), nil
}

// Details breaks down the cumulative GPA and, if semesterID is set, the semester's share of it.
// Both are computed over graded COMPLETED enrollments only.
func (svc *Service) Details(ctx context.Context, studentID, semesterID string) (Details, error) {
	if _, err := svc.students.GetStudent(ctx, studentID); err != nil {
		return Details{}, err
	}
	enrs, err := svc.query(ctx, grading.EnrollmentFilter{
		StudentID: studentID,
		Statuses:  []grading.Status{grading.StatusCompleted},
	})
	if err != nil {
		return Details{}, err
	}

	var d Details
	var points float64
	d.TotalCredits, points = Sum(enrs)
	d.TotalPoints = core.Round2(points)
	d.CumulativeGPA = Compute(d.TotalCredits, points)

	if semesterID != "" {
		var inSemester []grading.Enrollment
		for _, e := range enrs {
			if e.SemesterID == semesterID {
				inSemester = append(inSemester, e)
			}
		}
		d.SemesterCredits, points = Sum(inSemester)
		d.SemesterPoints = core.Round2(points)
		d.SemesterGPA = Compute(d.SemesterCredits, points)
	}
	return d, nil
}
