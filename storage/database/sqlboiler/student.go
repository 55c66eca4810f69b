package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/asprotests/hums-sub000/core/student"
)

type (
	studentRepository struct {
		exec boil.ContextExecutor
	}

	holdRepository struct {
		exec boil.ContextExecutor
	}

	studentRow struct {
		ID            string      `boil:"id"`
		StudentNumber string      `boil:"student_number"`
		FirstName     string      `boil:"first_name"`
		LastName      string      `boil:"last_name"`
		Email         null.String `boil:"email"`
		Program       null.String `boil:"program"`
	}

	holdRow struct {
		ID               string      `boil:"id"`
		StudentID        string      `boil:"student_id"`
		Type             string      `boil:"type"`
		Reason           null.String `boil:"reason"`
		BlocksTranscript bool        `boil:"blocks_transcript"`
		CreatedAt        null.Time   `boil:"created_at"`
		ReleasedAt       null.Time   `boil:"released_at"`
	}
)

var (
	_ student.Repository     = (*studentRepository)(nil) // interface compliance check
	_ student.HoldRepository = (*holdRepository)(nil)    // interface compliance check
)

func NewStudentRepository(exec boil.ContextExecutor) student.Repository {
	return &studentRepository{exec: exec}
}

func NewHoldRepository(exec boil.ContextExecutor) student.HoldRepository {
	return &holdRepository{exec: exec}
}

func (row studentRow) unboil() student.Student {
	return student.Student{
		ID:            row.ID,
		StudentNumber: row.StudentNumber,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Email:         row.Email.String,
		Program:       row.Program.String,
	}
}

func (row holdRow) unboil() student.Hold {
	var releasedAt *time.Time
	if row.ReleasedAt.Valid {
		t := row.ReleasedAt.Time.UTC()
		releasedAt = &t
	}
	return student.Hold{
		ID:               row.ID,
		StudentID:        row.StudentID,
		Type:             row.Type,
		Reason:           row.Reason.String,
		BlocksTranscript: row.BlocksTranscript,
		CreatedAt:        row.CreatedAt.Time.UTC(),
		ReleasedAt:       releasedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	err := queries.Raw(
		`SELECT id, student_number, first_name, last_name, email, program FROM students WHERE id = $1`, id,
	).Bind(ctx, repo.exec, &row)
	if err != nil {
		return student.Student{}, trapNoRowsErr(err, "finding student")
	}
	return row.unboil(), nil
}

func (repo *holdRepository) ListActiveBlockingTranscript(ctx context.Context, studentID string) ([]student.Hold, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return nil, nil
	}
	var rows []holdRow
	err := queries.Raw(`
SELECT id, student_id, type, reason, blocks_transcript, created_at, released_at FROM student_holds
WHERE student_id = $1 AND blocks_transcript AND released_at IS NULL
ORDER BY created_at`, studentID,
	).Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "listing blocking holds")
	}

	holds := make([]student.Hold, 0, len(rows))
	for _, r := range rows {
		holds = append(holds, r.unboil())
	}
	return holds, nil
}
