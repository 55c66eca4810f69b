package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/asprotests/hums-sub000/core/student"
)

type (
	studentRepository struct {
		db *studentTables
	}

	holdRepository struct {
		db *studentTables
	}
)

var (
	_ student.Repository     = (*studentRepository)(nil) // interface compliance check
	_ student.HoldRepository = (*holdRepository)(nil)    // interface compliance check
)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func NewHoldRepository(db *DB) student.HoldRepository {
	return &holdRepository{db: db.student}
}

// InsertStudent stores stu, generating its id if empty.
func (db *DB) InsertStudent(stu student.Student) student.Student {
	db.student.Lock()
	defer db.student.Unlock()

	if stu.ID == "" {
		stu.ID = uuid.New().String()
	}
	db.student.students[stu.ID] = &stu
	return stu
}

// InsertHold stores hold, generating its id and creation time if empty.
func (db *DB) InsertHold(hold student.Hold) student.Hold {
	db.student.Lock()
	defer db.student.Unlock()

	if hold.ID == "" {
		hold.ID = uuid.New().String()
	}
	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = time.Now().UTC()
	}
	db.student.holds[hold.StudentID] = append(db.student.holds[hold.StudentID], &hold)
	return hold
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stu, ok := repo.db.students[id]; ok {
		return *stu, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *holdRepository) ListActiveBlockingTranscript(_ context.Context, studentID string) ([]student.Hold, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var holds []student.Hold
	for _, h := range repo.db.holds[studentID] {
		if h.IsActive() && h.BlocksTranscript {
			holds = append(holds, *h)
		}
	}
	return holds, nil
}
