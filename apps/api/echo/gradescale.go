package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/asprotests/hums-sub000/core/gradescale"
)

type gradeScaleAPI struct {
	reg *gradescale.Registry
}

func registerGradeScaleAPI(g *echo.Group, jwt echo.MiddlewareFunc, reg *gradescale.Registry) {
	api := gradeScaleAPI{reg: reg}
	registrar := roleMiddleware(RoleAdmin, RoleRegistrar)

	scales := g.Group("/grade-scales", jwt)
	scales.GET("", api.query)
	scales.POST("", api.create, registrar)
	scales.GET("/default", api.retrieveDefault)
	scales.GET("/resolve", api.resolve)
	scales.GET("/:id", api.retrieve)
	scales.PUT("/:id", api.update, registrar)
	scales.DELETE("/:id", api.destroy, registrar)
	scales.POST("/:id/default", api.setDefault, registrar)
}

func (api gradeScaleAPI) query(ctx echo.Context) error {
	scales, err := api.reg.QueryScales(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scales)
}

func (api gradeScaleAPI) retrieve(ctx echo.Context) error {
	scale, err := api.reg.GetScale(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scale)
}

func (api gradeScaleAPI) retrieveDefault(ctx echo.Context) error {
	scale, err := api.reg.GetDefaultScale(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scale)
}

// resolve: ?percentage=74.5[&scale_id=...]; the default scale is used without scale_id.
func (api gradeScaleAPI) resolve(ctx echo.Context) error {
	pct, err := strconv.ParseFloat(ctx.QueryParam("percentage"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid percentage")
	}
	res, err := api.reg.ResolveLetter(ctx.Request().Context(), pct, ctx.QueryParam("scale_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api gradeScaleAPI) create(ctx echo.Context) error {
	var ns gradescale.NewScale
	if err := ctx.Bind(&ns); err != nil {
		return err
	}
	scale, err := api.reg.CreateScale(ctx.Request().Context(), ns, contextActor(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, scale)
}

func (api gradeScaleAPI) update(ctx echo.Context) error {
	var us gradescale.UpdateScale
	if err := ctx.Bind(&us); err != nil {
		return err
	}
	scale, err := api.reg.UpdateScale(ctx.Request().Context(), ctx.Param("id"), us, contextActor(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scale)
}

func (api gradeScaleAPI) setDefault(ctx echo.Context) error {
	scale, err := api.reg.SetDefault(ctx.Request().Context(), ctx.Param("id"), contextActor(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, scale)
}

func (api gradeScaleAPI) destroy(ctx echo.Context) error {
	if err := api.reg.DeleteScale(ctx.Request().Context(), ctx.Param("id"), contextActor(ctx).ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
