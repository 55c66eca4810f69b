package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/asprotests/hums-sub000/core/gpa"
	"github.com/asprotests/hums-sub000/core/transcript"
)

type (
	studentAPI struct {
		gpa         *gpa.Service
		transcripts *transcript.Service
	}

	cumulativeGPAResponse struct {
		StudentID     string  `json:"student_id"`
		CumulativeGPA float64 `json:"cumulative_gpa"`
	}

	semesterGPAResponse struct {
		StudentID   string  `json:"student_id"`
		SemesterID  string  `json:"semester_id"`
		SemesterGPA float64 `json:"semester_gpa"`
	}
)

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, gpaSvc *gpa.Service, transcripts *transcript.Service) {
	api := studentAPI{gpa: gpaSvc, transcripts: transcripts}

	students := g.Group("/students/:id", jwt, ctxStudentOrRoleMiddleware(RoleAdmin, RoleRegistrar, RoleFaculty))
	students.GET("/gpa", api.gpaDetails)
	students.GET("/gpa/cumulative", api.cumulativeGPA)
	students.GET("/gpa/semesters/:semesterID", api.semesterGPA)
	students.GET("/transcript", api.transcript)
}

func (api studentAPI) gpaDetails(ctx echo.Context) error {
	details, err := api.gpa.Details(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam("semester_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api studentAPI) cumulativeGPA(ctx echo.Context) error {
	studentID := ctx.Param("id")
	val, err := api.gpa.CumulativeGPA(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cumulativeGPAResponse{StudentID: studentID, CumulativeGPA: val})
}

func (api studentAPI) semesterGPA(ctx echo.Context) error {
	studentID, semesterID := ctx.Param("id"), ctx.Param("semesterID")
	val, err := api.gpa.SemesterGPA(ctx.Request().Context(), studentID, semesterID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, semesterGPAResponse{StudentID: studentID, SemesterID: semesterID, SemesterGPA: val})
}

// transcript: ?official=true requires no blocking hold.
func (api studentAPI) transcript(ctx echo.Context) error {
	var official bool
	if v := ctx.QueryParam("official"); v != "" {
		var err error
		if official, err = strconv.ParseBool(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid official flag")
		}
	}
	trans, err := api.transcripts.Generate(ctx.Request().Context(), ctx.Param("id"), official)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trans)
}
