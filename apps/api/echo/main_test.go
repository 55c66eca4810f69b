package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/asprotests/hums-sub000/apps/api/echo"
	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gpa"
	"github.com/asprotests/hums-sub000/core/gradescale"
	"github.com/asprotests/hums-sub000/core/grading"
	"github.com/asprotests/hums-sub000/core/transcript"
	dummydb "github.com/asprotests/hums-sub000/storage/database/dummy"
	testutil "github.com/asprotests/hums-sub000/tests"
)

type env struct {
	app    *echoapi.Server
	conf   *core.Config
	db     *dummydb.DB
	scales gradescale.Repository
	audit  *testutil.AuditSink
	logger *testutil.Logger
}

func setup(t *testing.T) env {
	conf := &core.Config{
		AppName:   "HUMS Registrar",
		TestMode:  true,
		SecretKey: "test-secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
	db := testutil.OpenDB(t)
	validate, translator := testutil.NewValidator()
	logger := testutil.NewLogger()
	audit := &testutil.AuditSink{}

	scales := dummydb.NewScaleRepository(db)
	enrollments := dummydb.NewEnrollmentRepository(db)
	students := dummydb.NewStudentRepository(db)
	reg := gradescale.NewRegistry(scales, validate, audit, logger)

	app := echoapi.NewServer(conf, logger, echoapi.Deps{
		Translator:  translator,
		Scales:      reg,
		Grading:     grading.NewService(enrollments, reg, audit, logger),
		GPA:         gpa.NewService(enrollments, students),
		Transcripts: transcript.NewService(students, dummydb.NewHoldRepository(db), enrollments, logger),
	})
	return env{app: app, conf: conf, db: db, scales: scales, audit: audit, logger: logger}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
}

func (e env) token(t *testing.T, subject string, roles ...string) string {
	token, err := echoapi.GenerateToken(e.conf, echoapi.NewClaims(e.conf, subject, roles...))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (e env) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.app.ServeHTTP(rec, req)
	return rec
}

func (e env) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestServer_home(t *testing.T) {
	e := setup(t)
	rec := e.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to HUMS Registrar API!", rec.Body.String())
}

func TestServer_auth(t *testing.T) {
	e := setup(t)
	testutil.CreateDefaultScale(t, e.scales)

	otherConf := *e.conf
	otherConf.SecretKey = "other-secret"
	forged, err := echoapi.GenerateToken(&otherConf, echoapi.NewClaims(&otherConf, "x", echoapi.RoleAdmin))
	require.NoError(t, err)

	e.run(t, []httpTest{
		{name: "missing token", method: http.MethodGet, path: "/v1/grade-scales", wantCode: http.StatusUnauthorized},
		{name: "bad signature", method: http.MethodGet, path: "/v1/grade-scales", token: forged, wantCode: http.StatusUnauthorized},
		{name: "ok", method: http.MethodGet, path: "/v1/grade-scales", token: e.token(t, "s1", echoapi.RoleStudent), wantCode: http.StatusOK},
	})
}
