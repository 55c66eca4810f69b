package student

import (
	"context"
	"time"

	"github.com/asprotests/hums-sub000/core"
)

// Hold types
const (
	HoldFinancial    = "financial"
	HoldDisciplinary = "disciplinary"
	HoldAdmissions   = "admissions"
	HoldLibrary      = "library"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("student")
)

type Student struct {
	ID            string `json:"id"`
	StudentNumber string `json:"student_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email,omitempty"`
	Program       string `json:"program,omitempty"`
}

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

// Hold is an administrative flag on a student. It is active while ReleasedAt is nil.
type Hold struct {
	ID               string     `json:"id"`
	StudentID        string     `json:"student_id"`
	Type             string     `json:"type"`
	Reason           string     `json:"reason,omitempty"`
	BlocksTranscript bool       `json:"blocks_transcript"`
	CreatedAt        time.Time  `json:"created_at"`            // UTC
	ReleasedAt       *time.Time `json:"released_at,omitempty"` // UTC
}

func (h Hold) IsActive() bool {
	return h.ReleasedAt == nil
}

type (
	Repository interface {
		GetStudent(ctx context.Context, id string) (Student, error)
	}

	HoldRepository interface {
		// ListActiveBlockingTranscript returns the student's unreleased holds that block transcripts.
		ListActiveBlockingTranscript(ctx context.Context, studentID string) ([]Hold, error)
	}
)
