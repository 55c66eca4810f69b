package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/asprotests/hums-sub000/core/grading"
)

const (
	enrollmentSelect = `
SELECT e.id, e.student_id, e.class_id, e.semester_id, e.status, e.final_percentage, e.final_grade,
       e.grade_points, e.is_finalized, e.finalized_at, e.finalized_by_id, e.enrolled_at,
       cl.section, co.id AS course_id, co.code AS course_code, co.name AS course_name,
       co.credits AS course_credits, s.name AS semester_name, s.start_date AS semester_start,
       s.end_date AS semester_end
FROM enrollments e
JOIN classes cl ON cl.id = e.class_id
JOIN courses co ON co.id = cl.course_id
JOIN semesters s ON s.id = e.semester_id`

	classSelect = `
SELECT cl.id, cl.semester_id, cl.section, co.id AS course_id, co.code AS course_code,
       co.name AS course_name, co.credits AS course_credits
FROM classes cl
JOIN courses co ON co.id = cl.course_id`
)

type (
	enrollmentRepository struct {
		db *sqlx.DB
	}

	courseCols struct {
		CourseID      string `db:"course_id"`
		CourseCode    string `db:"course_code"`
		CourseName    string `db:"course_name"`
		CourseCredits int    `db:"course_credits"`
	}

	classRow struct {
		ID         string `db:"id"`
		SemesterID string `db:"semester_id"`
		Section    string `db:"section"`
		courseCols
	}

	enrollmentRow struct {
		ID              string       `db:"id"`
		StudentID       string       `db:"student_id"`
		ClassID         string       `db:"class_id"`
		SemesterID      string       `db:"semester_id"`
		Status          string       `db:"status"`
		FinalPercentage null.Float64 `db:"final_percentage"`
		FinalGrade      null.String  `db:"final_grade"`
		GradePoints     null.Float64 `db:"grade_points"`
		IsFinalized     bool         `db:"is_finalized"`
		FinalizedAt     null.Time    `db:"finalized_at"`
		FinalizedByID   null.String  `db:"finalized_by_id"`
		EnrolledAt      time.Time    `db:"enrolled_at"`
		Section         string       `db:"section"`
		SemesterName    string       `db:"semester_name"`
		SemesterStart   time.Time    `db:"semester_start"`
		SemesterEnd     time.Time    `db:"semester_end"`
		courseCols
	}

	componentRow struct {
		ID       string    `db:"id"`
		ClassID  string    `db:"class_id"`
		Name     string    `db:"name"`
		Type     string    `db:"type"`
		MaxScore float64   `db:"max_score"`
		Weight   float64   `db:"weight"`
		DueDate  null.Time `db:"due_date"`
	}

	entryRow struct {
		ID           string    `db:"id"`
		EnrollmentID string    `db:"enrollment_id"`
		ComponentID  string    `db:"component_id"`
		Score        float64   `db:"score"`
		CreatedAt    time.Time `db:"created_at"`
	}
)

var _ grading.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) grading.Repository {
	return &enrollmentRepository{db: db}
}

func (c courseCols) course() grading.Course {
	return grading.Course{ID: c.CourseID, Code: c.CourseCode, Name: c.CourseName, Credits: c.CourseCredits}
}

func (r classRow) class() grading.Class {
	return grading.Class{ID: r.ID, SemesterID: r.SemesterID, Section: r.Section, Course: r.course()}
}

func (r enrollmentRow) enrollment() grading.Enrollment {
	return grading.Enrollment{
		ID:              r.ID,
		StudentID:       r.StudentID,
		ClassID:         r.ClassID,
		SemesterID:      r.SemesterID,
		Status:          grading.Status(r.Status),
		FinalPercentage: r.FinalPercentage.Ptr(),
		FinalGrade:      r.FinalGrade.Ptr(),
		GradePoints:     r.GradePoints.Ptr(),
		IsFinalized:     r.IsFinalized,
		FinalizedAt:     r.FinalizedAt.Ptr(),
		FinalizedByID:   r.FinalizedByID.Ptr(),
		EnrolledAt:      r.EnrolledAt.UTC(),
		Class: grading.Class{
			ID:         r.ClassID,
			SemesterID: r.SemesterID,
			Section:    r.Section,
			Course:     r.course(),
		},
		Semester: grading.Semester{
			ID:        r.SemesterID,
			Name:      r.SemesterName,
			StartDate: r.SemesterStart,
			EndDate:   r.SemesterEnd,
		},
	}
}

func (repo *enrollmentRepository) components(ctx context.Context, classID string) ([]grading.Component, error) {
	var rows []componentRow
	q := `SELECT id, class_id, name, type, max_score, weight, due_date FROM grade_components
WHERE class_id = $1 ORDER BY position, name`
	if err := repo.db.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting components")
	}
	comps := make([]grading.Component, 0, len(rows))
	for _, r := range rows {
		comps = append(comps, grading.Component{
			ID:       r.ID,
			ClassID:  r.ClassID,
			Name:     r.Name,
			Type:     r.Type,
			MaxScore: r.MaxScore,
			Weight:   r.Weight,
			DueDate:  r.DueDate.Ptr(),
		})
	}
	return comps, nil
}

func (repo *enrollmentRepository) entries(ctx context.Context, enrollmentID string) ([]grading.Entry, error) {
	var rows []entryRow
	q := `SELECT id, enrollment_id, component_id, score, created_at FROM grade_entries
WHERE enrollment_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, enrollmentID); err != nil {
		return nil, errors.Wrap(err, "selecting entries")
	}
	entries := make([]grading.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, grading.Entry(r))
	}
	return entries, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id string) (grading.Enrollment, error) {
	if !validID(id) {
		return grading.Enrollment{}, grading.ErrEnrollmentNotFound
	}
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, enrollmentSelect+" WHERE e.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return grading.Enrollment{}, grading.ErrEnrollmentNotFound
		}
		return grading.Enrollment{}, errors.Wrap(err, "selecting enrollment")
	}

	enr := row.enrollment()
	var err error
	if enr.Class.Components, err = repo.components(ctx, enr.ClassID); err != nil {
		return grading.Enrollment{}, err
	}
	if enr.Entries, err = repo.entries(ctx, enr.ID); err != nil {
		return grading.Enrollment{}, err
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetClass(ctx context.Context, id string) (grading.Class, error) {
	if !validID(id) {
		return grading.Class{}, grading.ErrClassNotFound
	}
	var row classRow
	if err := repo.db.GetContext(ctx, &row, classSelect+" WHERE cl.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return grading.Class{}, grading.ErrClassNotFound
		}
		return grading.Class{}, errors.Wrap(err, "selecting class")
	}

	class := row.class()
	var err error
	if class.Components, err = repo.components(ctx, class.ID); err != nil {
		return grading.Class{}, err
	}
	return class, nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter grading.EnrollmentFilter) ([]grading.Enrollment, error) {
	var where []string
	var args []interface{}
	for _, f := range []struct {
		col, val string
	}{
		{"e.class_id", filter.ClassID},
		{"e.student_id", filter.StudentID},
		{"e.semester_id", filter.SemesterID},
	} {
		if f.val == "" {
			continue
		}
		if !validID(f.val) {
			return nil, nil
		}
		where = append(where, f.col+" = ?")
		args = append(args, f.val)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "e.status IN (?)")
		args = append(args, filter.Statuses)
	}
	if filter.GradedOnly {
		where = append(where, "e.final_grade IS NOT NULL")
	}

	q := enrollmentSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY e.enrolled_at, e.id"

	// expand the statuses slice
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building enrollments query")
	}

	var rows []enrollmentRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrs := make([]grading.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.enrollment())
	}
	return enrs, nil
}

func (repo *enrollmentRepository) FinalizeEnrollments(ctx context.Context, fins []grading.Finalization) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	q := `UPDATE enrollments SET final_percentage = $1, final_grade = $2, grade_points = $3,
is_finalized = true, finalized_at = $4, finalized_by_id = $5 WHERE id = $6`
	for _, fin := range fins {
		res, err := tx.ExecContext(ctx, q,
			fin.FinalPercentage, fin.FinalGrade, fin.GradePoints, fin.FinalizedAt.UTC(), fin.FinalizedByID, fin.EnrollmentID,
		)
		if err != nil {
			return rollback(tx, err, "finalizing enrollment "+fin.EnrollmentID)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			_ = tx.Rollback()
			if err != nil {
				return errors.Wrap(err, "finalizing enrollment "+fin.EnrollmentID)
			}
			return grading.ErrEnrollmentNotFound
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing finalization")
	}
	return nil
}

func (repo *enrollmentRepository) UnfinalizeClass(ctx context.Context, classID string) (int, error) {
	if !validID(classID) {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE enrollments SET is_finalized = false, finalized_at = NULL, finalized_by_id = NULL WHERE class_id = $1`,
		classID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "unfinalizing enrollments")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "unfinalizing enrollments")
	}
	return int(n), nil
}
