package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/transcript"
	dummydb "github.com/asprotests/hums-sub000/storage/database/dummy"
	testutil "github.com/asprotests/hums-sub000/tests"
)

type env struct {
	cli    *commandLine
	out    *bytes.Buffer
	db     *dummydb.DB
	scales gradescale.Repository
	audit  *testutil.AuditSink
}

func setup(t *testing.T) env {
	db := testutil.OpenDB(t)
	validate, _ := testutil.NewValidator()
	logger := testutil.NewLogger()
	audit := &testutil.AuditSink{}
	scales := dummydb.NewScaleRepository(db)
	enrollments := dummydb.NewEnrollmentRepository(db)
	registry := gradescale.NewRegistry(scales, validate, audit, logger)

	out := new(bytes.Buffer)
	cli := &commandLine{
		out:         out,
		registry:    registry,
		grading:     grading.NewService(enrollments, registry, audit, logger),
		transcripts: transcript.NewService(dummydb.NewStudentRepository(db), dummydb.NewHoldRepository(db), enrollments, logger),
	}
	return env{cli: cli, out: out, db: db, scales: scales, audit: audit}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (e env) run(t *testing.T, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := e.cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	e := setup(t)
	e.run(t, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, e.out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	e := setup(t)

	orig := gooseRunFunc
	defer func() { gooseRunFunc = orig }()
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	e.run(t, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "transcript_requests", "sql"}},
	})
}

func Test_commandLine_ensureScale(t *testing.T) {
	e := setup(t)

	e.run(t, []cliTest{
		{name: "install", args: []string{"ensurescale"}},
		{name: "already installed", args: []string{"ensurescale"}},
	})

	scales, err := e.scales.QueryScales(context.Background())
	require.NoError(t, err)
	if assert.Len(t, scales, 1) {
		assert.Equal(t, gradescale.DefaultScaleName, scales[0].Name)
		assert.True(t, scales[0].IsDefault)
	}
}

func Test_commandLine_importScale(t *testing.T) {
	e := setup(t)
	def := testutil.CreateDefaultScale(t, e.scales)

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	valid := write("passfail.yaml", `
name: Pass/Fail
description: Pass or fail
definitions:
  - {letter: P, min_percentage: 50, max_percentage: 100, grade_points: 4}
  - {letter: F, min_percentage: 0, max_percentage: 49.99, grade_points: 0, description: Fail}
`)
	gap := write("gap.yaml", `
name: Gappy
definitions:
  - {letter: P, min_percentage: 60, max_percentage: 100, grade_points: 4}
  - {letter: F, min_percentage: 0, max_percentage: 49.99, grade_points: 0}
`)
	broken := write("broken.yaml", "name: [")

	e.run(t, []cliTest{
		{name: "no file", args: []string{"importscale"}, wantErr: errHelp},
		{name: "missing file", args: []string{"importscale", "-file", filepath.Join(dir, "nope.yaml")}, wantErrStr: "reading scale file"},
		{name: "invalid yaml", args: []string{"importscale", "-file", broken}, wantErrStr: "parsing"},
		{name: "band gap", args: []string{"importscale", "-file", gap}, wantErrStr: "bandsgap"},
		{name: "import as default", args: []string{"importscale", "-file", valid, "-default", "-actor", "r1"}},
	})

	got, err := e.scales.GetDefaultScale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Pass/Fail", got.Name)
	assert.NotEqual(t, def.ID, got.ID)
	if assert.Len(t, got.Definitions, 2) {
		assert.Equal(t, "P", got.Definitions[0].Letter)
		assert.Equal(t, "Fail", got.Definitions[1].Description)
	}
	assert.Contains(t, e.out.String(), `imported grade scale "Pass/Fail"`)

	events := e.audit.Events()
	if assert.Len(t, events, 1) {
		assert.Equal(t, core.AuditCreateScale, events[0].Action)
		assert.Equal(t, "r1", events[0].ActorID)
	}
}

func Test_commandLine_finalize(t *testing.T) {
	e := setup(t)
	testutil.CreateDefaultScale(t, e.scales)
	sem := testutil.CreateSemester(t, e.db, "Fall 2026", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	class := testutil.CreateClass(t, e.db, sem.ID, "CS101", 3,
		testutil.Comp("Midterm", 100, 40),
		testutil.Comp("Final", 100, 60),
	)
	stu := testutil.CreateStudent(t, e.db, "S001", "Amina", "Yusuf")
	enr := testutil.CreateEnrollment(t, e.db, stu.ID, class, grading.StatusRegistered)
	testutil.AddEntry(t, e.db, enr.ID, class.Components[0].ID, 80)
	testutil.AddEntry(t, e.db, enr.ID, class.Components[1].ID, 70)

	e.run(t, []cliTest{
		{name: "no class", args: []string{"finalize", "-actor", "r1"}, wantErr: errHelp},
		{name: "no actor", args: []string{"finalize", "-class", class.ID}, wantErr: errHelp},
		{name: "unknown class", args: []string{"finalize", "-class", "unknown", "-actor", "r1"}, wantErr: grading.ErrClassNotFound},
		{name: "finalize", args: []string{"finalize", "-class", class.ID, "-actor", "r1"}},
	})
	assert.Contains(t, e.out.String(), "finalized 1 enrollments of class "+class.ID)
	assert.Contains(t, e.out.String(), " 74.00\tC+")

	e.run(t, []cliTest{
		{name: "unfinalize: no reason", args: []string{"unfinalize", "-class", class.ID, "-actor", "r1"}, wantErrStr: "reason"},
		{name: "unfinalize", args: []string{"unfinalize", "-class", class.ID, "-actor", "r1", "-reason", "grade appeal"}},
	})
	assert.Contains(t, e.out.String(), "unfinalized 1 enrollments of class "+class.ID)
}

func Test_commandLine_transcript(t *testing.T) {
	e := setup(t)
	stu := testutil.CreateStudent(t, e.db, "S001", "Amina", "Yusuf")
	sem := testutil.CreateSemester(t, e.db, "Fall 2026", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	class := testutil.CreateClass(t, e.db, sem.ID, "CS101", 3)
	testutil.CreateGradedEnrollment(t, e.db, stu.ID, class, grading.StatusCompleted, 96, "A+", testutil.Float(4))
	testutil.CreateHold(t, e.db, stu.ID, "library", true)

	e.run(t, []cliTest{
		{name: "no student", args: []string{"transcript"}, wantErr: errHelp},
		{name: "unknown student", args: []string{"transcript", "-student", "unknown"}, wantErrStr: "student not found"},
		{name: "official with hold", args: []string{"transcript", "-student", stu.ID, "-official"}, wantErrStr: "library"},
	})

	e.out.Reset()
	require.NoError(t, e.cli.run([]string{"admin", "transcript", "-student", stu.ID}))
	var trans transcript.Transcript
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &trans))
	assert.Equal(t, "S001", trans.Student.StudentNumber)
	assert.False(t, trans.IsOfficial)
	assert.Equal(t, 4.0, trans.Cumulative.GPA)
	assert.Equal(t, 1, trans.CourseCount())
}
