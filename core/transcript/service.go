package transcript

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gpa"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/student"
)

var NowFunc = time.Now // mockable

type Service struct {
	students    student.Repository
	holds       student.HoldRepository
	enrollments gpa.EnrollmentQuerier
	logger      core.Logger
}

func NewService(students student.Repository, holds student.HoldRepository, enrollments gpa.EnrollmentQuerier, logger core.Logger) *Service {
	return &Service{
		students:    students,
		holds:       holds,
		enrollments: enrollments,
		logger:      logger,
	}
}

func blockedError(holds []student.Hold) error {
	types := make([]string, 0, len(holds))
	for _, h := range holds {
		types = append(types, h.Type)
	}
	return core.NewBadRequestError(fmt.Sprintf("holds blocking transcript: %s", strings.Join(types, ", ")))
}

// Generate assembles the student's transcript from graded COMPLETED enrollments,
// grouped by semester (oldest first) and ordered by course code.
// An official transcript is refused while the student has an active hold blocking transcripts.
func (svc *Service) Generate(ctx context.Context, studentID string, official bool) (Transcript, error) {
	stu, err := svc.students.GetStudent(ctx, studentID)
	if err != nil {
		return Transcript{}, err
	}

	if official {
		holds, err := svc.holds.ListActiveBlockingTranscript(ctx, studentID)
		if err != nil {
			return Transcript{}, errors.Wrap(err, "listing blocking holds")
		}
		if len(holds) > 0 {
			svc.logger.Info(fmt.Sprintf("official transcript of student %s refused: %d blocking holds", studentID, len(holds)))
			return Transcript{}, blockedError(holds)
		}
	}

	enrs, err := svc.enrollments.QueryEnrollments(ctx, grading.EnrollmentFilter{
		StudentID:  studentID,
		Statuses:   []grading.Status{grading.StatusCompleted},
		GradedOnly: true,
	})
	if err != nil {
		return Transcript{}, errors.Wrap(err, "querying graded enrollments")
	}

	sort.SliceStable(enrs, func(i, j int) bool {
		si, sj := enrs[i].Semester.StartDate, enrs[j].Semester.StartDate
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return enrs[i].Class.Course.Code < enrs[j].Class.Course.Code
	})

	t := Transcript{
		Student:     stu,
		Semesters:   group(enrs),
		GeneratedAt: NowFunc().UTC(),
		IsOfficial:  official,
	}
	var points float64
	for _, s := range t.Semesters {
		t.Cumulative.Credits += s.SemesterCredits
		points += s.SemesterPoints
	}
	t.Cumulative.Points = core.Round2(points)
	t.Cumulative.GPA = gpa.Compute(t.Cumulative.Credits, t.Cumulative.Points)
	return t, nil
}

// group expects enrs sorted by semester.
func group(enrs []grading.Enrollment) []Semester {
	semesters := []Semester{}
	byID := map[string][]grading.Enrollment{}
	for _, e := range enrs {
		if _, ok := byID[e.SemesterID]; !ok {
			semesters = append(semesters, Semester{
				ID:        e.SemesterID,
				Name:      e.Semester.Name,
				StartDate: e.Semester.StartDate,
			})
		}
		byID[e.SemesterID] = append(byID[e.SemesterID], e)
	}

	for i := range semesters {
		s := &semesters[i]
		sEnrs := byID[s.ID]
		for _, e := range sEnrs {
			var pct float64
			var letter string
			if e.FinalPercentage != nil {
				pct = *e.FinalPercentage
			}
			if e.FinalGrade != nil {
				letter = *e.FinalGrade
			}
			s.Courses = append(s.Courses, Course{
				EnrollmentID: e.ID,
				Code:         e.Class.Course.Code,
				Name:         e.Class.Course.Name,
				Credits:      e.Credits(),
				Percentage:   pct,
				Letter:       letter,
				GradePoints:  e.Points(),
			})
		}
		credits, points := gpa.Sum(sEnrs)
		s.SemesterCredits = credits
		s.SemesterPoints = core.Round2(points)
		s.SemesterGPA = gpa.Compute(credits, points)
	}
	return semesters
}
