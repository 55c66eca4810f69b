package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/student"
	dummydb "github.com/asprotests/hums-sub000/storage/database/dummy"
)

// NewValidator returns a validator with every custom validation and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	gradescale.InitValidators(validate, translator)
	return validate, translator
}

func OpenDB(t *testing.T) *dummydb.DB {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("openDB() failed: %v", err)
	}
	return db
}

// Logger is a core.Logger keeping its messages, by level, for assertions.
type Logger struct {
	mu       sync.Mutex
	messages map[string][]string
}

var _ core.Logger = (*Logger)(nil) // interface compliance check

func NewLogger() *Logger {
	return &Logger{messages: make(map[string][]string)}
}

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages[level] = append(l.messages[level], msg)
}

func (l *Logger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages[level]...)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

// AuditSink is a core.AuditSink keeping recorded events. It fails every Record call when Err is set.
type AuditSink struct {
	mu     sync.Mutex
	Err    error
	events []core.AuditEvent
}

var _ core.AuditSink = (*AuditSink)(nil) // interface compliance check

func (s *AuditSink) Record(_ context.Context, ev core.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *AuditSink) Events() []core.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AuditEvent(nil), s.events...)
}

func CreateDefaultScale(t *testing.T, repo gradescale.Repository) gradescale.Scale {
	t.Helper()
	scale, err := repo.CreateScale(context.Background(), gradescale.DefaultScale())
	if err != nil {
		t.Fatalf("createDefaultScale() failed: %v", err)
	}
	return scale
}

func CreateStudent(t *testing.T, db *dummydb.DB, number, firstName, lastName string) student.Student {
	t.Helper()
	return db.InsertStudent(student.Student{
		StudentNumber: number,
		FirstName:     firstName,
		LastName:      lastName,
		Email:         fmt.Sprintf("%s@example.edu", number),
		Program:       "BSc Computer Science",
	})
}

func CreateHold(t *testing.T, db *dummydb.DB, studentID, typ string, blocksTranscript bool, releasedAt ...time.Time) student.Hold {
	t.Helper()
	hold := student.Hold{
		StudentID:        studentID,
		Type:             typ,
		Reason:           typ + " hold",
		BlocksTranscript: blocksTranscript,
	}
	if len(releasedAt) > 0 {
		rel := releasedAt[0].UTC()
		hold.ReleasedAt = &rel
	}
	return db.InsertHold(hold)
}

func CreateSemester(t *testing.T, db *dummydb.DB, name string, start time.Time) grading.Semester {
	t.Helper()
	return db.InsertSemester(grading.Semester{
		Name:      name,
		StartDate: start.UTC(),
		EndDate:   start.UTC().AddDate(0, 4, 0),
	})
}

// Comp builds a class component.
func Comp(name string, maxScore, weight float64) grading.Component {
	return grading.Component{Name: name, Type: "exam", MaxScore: maxScore, Weight: weight}
}

func CreateClass(t *testing.T, db *dummydb.DB, semesterID, code string, credits int, comps ...grading.Component) grading.Class {
	t.Helper()
	return db.InsertClass(grading.Class{
		SemesterID: semesterID,
		Section:    "A",
		Course:     grading.Course{Code: code, Name: "Course " + code, Credits: credits},
		Components: comps,
	})
}

func CreateEnrollment(t *testing.T, db *dummydb.DB, studentID string, class grading.Class, status grading.Status) grading.Enrollment {
	t.Helper()
	return db.InsertEnrollment(grading.Enrollment{
		StudentID:  studentID,
		ClassID:    class.ID,
		SemesterID: class.SemesterID,
		Status:     status,
	})
}

// CreateGradedEnrollment creates a finalized enrollment. A nil points leaves the grade points unset.
func CreateGradedEnrollment(
	t *testing.T,
	db *dummydb.DB,
	studentID string,
	class grading.Class,
	status grading.Status,
	pct float64,
	letter string,
	points *float64,
) grading.Enrollment {
	t.Helper()
	now := time.Now().UTC()
	actor := "registrar"
	return db.InsertEnrollment(grading.Enrollment{
		StudentID:       studentID,
		ClassID:         class.ID,
		SemesterID:      class.SemesterID,
		Status:          status,
		FinalPercentage: &pct,
		FinalGrade:      &letter,
		GradePoints:     points,
		IsFinalized:     true,
		FinalizedAt:     &now,
		FinalizedByID:   &actor,
	})
}

func AddEntry(t *testing.T, db *dummydb.DB, enrollmentID, componentID string, score float64) grading.Entry {
	t.Helper()
	return db.InsertEntry(grading.Entry{EnrollmentID: enrollmentID, ComponentID: componentID, Score: score})
}

func Float(f float64) *float64 {
	return &f
}
