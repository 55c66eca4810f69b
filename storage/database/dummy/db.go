package dummydb

import (
	"sync"

	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/student"
)

type (
	// DB is an in-memory store, one lock per aggregate.
	DB struct {
		student *studentTables
		grading *gradingTables
		scale   *scaleTable
	}

	studentTables struct {
		sync.RWMutex
		students map[string]*student.Student
		holds    map[string][]*student.Hold // by student id
	}

	gradingTables struct {
		sync.RWMutex
		semesters   map[string]*grading.Semester
		classes     map[string]*grading.Class
		enrollments map[string]*grading.Enrollment
		enrOrder    []string
		entries     map[string][]grading.Entry // by enrollment id
	}

	scaleTable struct {
		sync.RWMutex
		table map[string]*gradescale.Scale
	}
)

func Open() (*DB, error) {
	db := &DB{
		student: &studentTables{
			students: make(map[string]*student.Student),
			holds:    make(map[string][]*student.Hold),
		},
		grading: &gradingTables{
			semesters:   make(map[string]*grading.Semester),
			classes:     make(map[string]*grading.Class),
			enrollments: make(map[string]*grading.Enrollment),
			entries:     make(map[string][]grading.Entry),
		},
		scale: &scaleTable{table: make(map[string]*gradescale.Scale)},
	}
	return db, nil
}
