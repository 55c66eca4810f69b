package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asprotests/hums-sub000/core/grading"
)

type (
	gradingAPI struct {
		svc *grading.Service
	}

	unfinalizeRequest struct {
		Reason string `json:"reason"`
	}

	unfinalizeResponse struct {
		ClassID     string `json:"class_id"`
		Unfinalized int    `json:"unfinalized"`
	}
)

func registerGradingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *grading.Service) {
	api := gradingAPI{svc: svc}
	staff := roleMiddleware(RoleAdmin, RoleRegistrar, RoleFaculty)
	registrar := roleMiddleware(RoleAdmin, RoleRegistrar)

	g.GET("/enrollments/:id/grade", api.enrollmentGrade, jwt, staff)

	classes := g.Group("/classes", jwt)
	classes.GET("/:id/grades", api.classGrades, staff)
	classes.POST("/:id/finalize", api.finalize, registrar)
	classes.POST("/:id/unfinalize", api.unfinalize, registrar)
}

func (api gradingAPI) enrollmentGrade(ctx echo.Context) error {
	grade, err := api.svc.ComputeFinalGrade(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api gradingAPI) classGrades(ctx echo.Context) error {
	grades, err := api.svc.ComputeClassGrades(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api gradingAPI) finalize(ctx echo.Context) error {
	grades, err := api.svc.FinalizeClass(ctx.Request().Context(), ctx.Param("id"), contextActor(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api gradingAPI) unfinalize(ctx echo.Context) error {
	var req unfinalizeRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	classID := ctx.Param("id")
	n, err := api.svc.UnfinalizeClass(ctx.Request().Context(), classID, req.Reason, contextActor(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, unfinalizeResponse{ClassID: classID, Unfinalized: n})
}
