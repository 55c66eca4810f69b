package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/asprotests/hums-sub000/core/grading"
)

type enrollmentRepository struct {
	db *gradingTables
}

var _ grading.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) grading.Repository {
	return &enrollmentRepository{db: db.grading}
}

func (db *DB) InsertSemester(sem grading.Semester) grading.Semester {
	db.grading.Lock()
	defer db.grading.Unlock()

	if sem.ID == "" {
		sem.ID = uuid.New().String()
	}
	db.grading.semesters[sem.ID] = &sem
	return sem
}

// InsertClass stores class and its components, generating missing ids.
func (db *DB) InsertClass(class grading.Class) grading.Class {
	db.grading.Lock()
	defer db.grading.Unlock()

	if class.ID == "" {
		class.ID = uuid.New().String()
	}
	if class.Course.ID == "" {
		class.Course.ID = uuid.New().String()
	}
	comps := make([]grading.Component, 0, len(class.Components))
	for _, comp := range class.Components {
		if comp.ID == "" {
			comp.ID = uuid.New().String()
		}
		comp.ClassID = class.ID
		comps = append(comps, comp)
	}
	class.Components = comps
	db.grading.classes[class.ID] = &class
	return class
}

// InsertEnrollment stores enr as is, defaulting its id, semester (the class's), status and enrollment time.
func (db *DB) InsertEnrollment(enr grading.Enrollment) grading.Enrollment {
	db.grading.Lock()
	defer db.grading.Unlock()

	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	if enr.SemesterID == "" {
		if class, ok := db.grading.classes[enr.ClassID]; ok {
			enr.SemesterID = class.SemesterID
		}
	}
	if enr.Status == "" {
		enr.Status = grading.StatusRegistered
	}
	if enr.EnrolledAt.IsZero() {
		enr.EnrolledAt = time.Now().UTC()
	}
	enr.Class = grading.Class{}
	enr.Semester = grading.Semester{}
	enr.Entries = nil

	if _, ok := db.grading.enrollments[enr.ID]; !ok {
		db.grading.enrOrder = append(db.grading.enrOrder, enr.ID)
	}
	db.grading.enrollments[enr.ID] = &enr
	return db.grading.load(enr, false)
}

func (db *DB) InsertEntry(entry grading.Entry) grading.Entry {
	db.grading.Lock()
	defer db.grading.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	db.grading.entries[entry.EnrollmentID] = append(db.grading.entries[entry.EnrollmentID], entry)
	return entry
}

// load fills enr's relations. Callers hold the lock.
func (tbl *gradingTables) load(enr grading.Enrollment, withEntries bool) grading.Enrollment {
	if class, ok := tbl.classes[enr.ClassID]; ok {
		enr.Class = *class
		enr.Class.Components = append([]grading.Component(nil), class.Components...)
	}
	if sem, ok := tbl.semesters[enr.SemesterID]; ok {
		enr.Semester = *sem
	}
	if withEntries {
		enr.Entries = append([]grading.Entry(nil), tbl.entries[enr.ID]...)
	}
	return enr
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, id string) (grading.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return repo.db.load(*enr, true), nil
	}
	return grading.Enrollment{}, grading.ErrEnrollmentNotFound
}

func (repo *enrollmentRepository) GetClass(_ context.Context, id string) (grading.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if class, ok := repo.db.classes[id]; ok {
		c := *class
		c.Components = append([]grading.Component(nil), class.Components...)
		return c, nil
	}
	return grading.Class{}, grading.ErrClassNotFound
}

func matches(enr *grading.Enrollment, filter grading.EnrollmentFilter) bool {
	if filter.ClassID != "" && enr.ClassID != filter.ClassID {
		return false
	}
	if filter.StudentID != "" && enr.StudentID != filter.StudentID {
		return false
	}
	if filter.SemesterID != "" && enr.SemesterID != filter.SemesterID {
		return false
	}
	if len(filter.Statuses) > 0 && !enr.HasStatus(filter.Statuses...) {
		return false
	}
	if filter.GradedOnly && !enr.HasFinalGrade() {
		return false
	}
	return true
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter grading.EnrollmentFilter) ([]grading.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrs []grading.Enrollment
	for _, id := range repo.db.enrOrder {
		if enr := repo.db.enrollments[id]; matches(enr, filter) {
			enrs = append(enrs, repo.db.load(*enr, false))
		}
	}
	return enrs, nil
}

func (repo *enrollmentRepository) FinalizeEnrollments(_ context.Context, fins []grading.Finalization) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	// all or nothing
	for _, fin := range fins {
		if _, ok := repo.db.enrollments[fin.EnrollmentID]; !ok {
			return grading.ErrEnrollmentNotFound
		}
	}
	for _, fin := range fins {
		fin := fin
		enr := repo.db.enrollments[fin.EnrollmentID]
		enr.FinalPercentage = &fin.FinalPercentage
		enr.FinalGrade = &fin.FinalGrade
		enr.GradePoints = &fin.GradePoints
		enr.IsFinalized = true
		finalizedAt := fin.FinalizedAt.UTC()
		enr.FinalizedAt = &finalizedAt
		enr.FinalizedByID = &fin.FinalizedByID
	}
	return nil
}

func (repo *enrollmentRepository) UnfinalizeClass(_ context.Context, classID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, enr := range repo.db.enrollments {
		if enr.ClassID == classID {
			enr.IsFinalized = false
			enr.FinalizedAt = nil
			enr.FinalizedByID = nil
			n++
		}
	}
	return n, nil
}
