package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/asprotests/hums-sub000/apps/api/echo"
	"github.com/asprotests/hums-sub000/core"
	"github.com/asprotests/hums-sub000/core/gradescale"
	testutil "github.com/asprotests/hums-sub000/tests"
)

func passFail() gradescale.NewScale {
	return gradescale.NewScale{
		Name: "Pass/Fail",
		Definitions: []gradescale.Definition{
			{Letter: "F", MinPercentage: 0, MaxPercentage: 49.99, GradePoints: 0},
			{Letter: "P", MinPercentage: 50, MaxPercentage: 100, GradePoints: 4},
		},
	}
}

func TestGradeScaleAPI_read(t *testing.T) {
	e := setup(t)
	def := testutil.CreateDefaultScale(t, e.scales)
	pf, err := e.scales.CreateScale(context.Background(), gradescale.Scale{
		Name:        "Pass/Fail",
		Definitions: passFail().Definitions,
	})
	require.NoError(t, err)
	token := e.token(t, "f1", echoapi.RoleFaculty)

	t.Run("query", func(t *testing.T) {
		rec := e.do(http.MethodGet, "/v1/grade-scales", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var scales []gradescale.Scale
		decode(t, rec, &scales)
		if assert.Len(t, scales, 2) {
			assert.Equal(t, def.ID, scales[0].ID, "default first")
			assert.Equal(t, pf.ID, scales[1].ID)
		}
	})

	t.Run("default", func(t *testing.T) {
		rec := e.do(http.MethodGet, "/v1/grade-scales/default", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var scale gradescale.Scale
		decode(t, rec, &scale)
		assert.Equal(t, def.ID, scale.ID)
		assert.True(t, scale.IsDefault)
	})

	t.Run("retrieve", func(t *testing.T) {
		rec := e.do(http.MethodGet, "/v1/grade-scales/"+pf.ID, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var scale gradescale.Scale
		decode(t, rec, &scale)
		assert.Equal(t, "Pass/Fail", scale.Name)
		assert.Len(t, scale.Definitions, 2)
	})

	e.run(t, []httpTest{
		{name: "retrieve unknown", method: http.MethodGet, path: "/v1/grade-scales/unknown", token: token, wantCode: http.StatusNotFound},
		{name: "resolve bad percentage", method: http.MethodGet, path: "/v1/grade-scales/resolve?percentage=abc", token: token, wantCode: http.StatusBadRequest},
		{name: "resolve unknown scale", method: http.MethodGet, path: "/v1/grade-scales/resolve?percentage=74&scale_id=unknown", token: token, wantCode: http.StatusNotFound},
	})

	resolveTests := []struct {
		name       string
		path       string
		wantLetter string
		wantPoints float64
	}{
		{name: "default scale", path: "/v1/grade-scales/resolve?percentage=74", wantLetter: "C+", wantPoints: 2.3},
		{name: "explicit scale", path: "/v1/grade-scales/resolve?percentage=74&scale_id=" + pf.ID, wantLetter: "P", wantPoints: 4},
		{name: "out of range", path: "/v1/grade-scales/resolve?percentage=120", wantLetter: gradescale.FallbackLetter, wantPoints: 0},
	}
	for _, tt := range resolveTests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodGet, tt.path, token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res gradescale.Resolution
			decode(t, rec, &res)
			assert.Equal(t, tt.wantLetter, res.Letter)
			assert.Equal(t, tt.wantPoints, res.GradePoints)
		})
	}
}

func TestGradeScaleAPI_resolveNoDefault(t *testing.T) {
	e := setup(t)
	rec := e.do(http.MethodGet, "/v1/grade-scales/resolve?percentage=74", e.token(t, "r1", echoapi.RoleRegistrar))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradeScaleAPI_create(t *testing.T) {
	e := setup(t)
	def := testutil.CreateDefaultScale(t, e.scales)
	registrar := e.token(t, "r1", echoapi.RoleRegistrar)

	overlapping := passFail()
	overlapping.Definitions[0].MaxPercentage = 60

	e.run(t, []httpTest{
		{name: "student forbidden", method: http.MethodPost, path: "/v1/grade-scales", body: marshallObj(t, passFail()), token: e.token(t, "s1", echoapi.RoleStudent), wantCode: http.StatusForbidden},
		{name: "faculty forbidden", method: http.MethodPost, path: "/v1/grade-scales", body: marshallObj(t, passFail()), token: e.token(t, "f1", echoapi.RoleFaculty), wantCode: http.StatusForbidden},
		{name: "malformed body", method: http.MethodPost, path: "/v1/grade-scales", body: []byte(`{"name":`), token: registrar, wantCode: http.StatusBadRequest},
	})

	t.Run("overlapping bands", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/v1/grade-scales", registrar, marshallObj(t, overlapping))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decode(t, rec, &fields)
		assert.Equal(t, "grade bands must not overlap", fields["definitions"])
	})

	t.Run("ok", func(t *testing.T) {
		ns := passFail()
		ns.IsDefault = true
		rec := e.do(http.MethodPost, "/v1/grade-scales", registrar, marshallObj(t, ns))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var scale gradescale.Scale
		decode(t, rec, &scale)
		assert.True(t, scale.IsDefault)

		old, err := e.scales.GetScale(context.Background(), def.ID)
		require.NoError(t, err)
		assert.False(t, old.IsDefault)

		events := e.audit.Events()
		if assert.Len(t, events, 1) {
			assert.Equal(t, core.AuditCreateScale, events[0].Action)
			assert.Equal(t, "r1", events[0].ActorID)
		}
	})
}

func TestGradeScaleAPI_updateAndDelete(t *testing.T) {
	e := setup(t)
	def := testutil.CreateDefaultScale(t, e.scales)
	pf, err := e.scales.CreateScale(context.Background(), gradescale.Scale{
		Name:        "Pass/Fail",
		Definitions: passFail().Definitions,
	})
	require.NoError(t, err)
	admin := e.token(t, "a1", echoapi.RoleAdmin)

	upd := gradescale.UpdateScale{
		Name: "Honours",
		Definitions: []gradescale.Definition{
			{Letter: "H", MinPercentage: 85, MaxPercentage: 100, GradePoints: 4},
			{Letter: "P", MinPercentage: 50, MaxPercentage: 84.99, GradePoints: 2},
			{Letter: "F", MinPercentage: 0, MaxPercentage: 49.99, GradePoints: 0},
		},
	}
	gappy := upd
	gappy.Definitions = upd.Definitions[:2]

	e.run(t, []httpTest{
		{name: "update gap", method: http.MethodPut, path: "/v1/grade-scales/" + pf.ID, body: marshallObj(t, gappy), token: admin, wantCode: http.StatusBadRequest},
		{name: "update unknown", method: http.MethodPut, path: "/v1/grade-scales/unknown", body: marshallObj(t, upd), token: admin, wantCode: http.StatusNotFound},
		{name: "update", method: http.MethodPut, path: "/v1/grade-scales/" + pf.ID, body: marshallObj(t, upd), token: admin, wantCode: http.StatusOK},
		{name: "delete default", method: http.MethodDelete, path: "/v1/grade-scales/" + def.ID, token: admin, wantCode: http.StatusBadRequest},
		{name: "set default unknown", method: http.MethodPost, path: "/v1/grade-scales/unknown/default", token: admin, wantCode: http.StatusNotFound},
		{name: "set default", method: http.MethodPost, path: "/v1/grade-scales/" + pf.ID + "/default", token: admin, wantCode: http.StatusOK},
		{name: "delete previous default", method: http.MethodDelete, path: "/v1/grade-scales/" + def.ID, token: admin, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/v1/grade-scales/" + def.ID, token: admin, wantCode: http.StatusNotFound},
	})

	scale, err := e.scales.GetDefaultScale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pf.ID, scale.ID)
	assert.Equal(t, "Honours", scale.Name)
	assert.Len(t, scale.Definitions, 3)
}
