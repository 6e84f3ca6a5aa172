package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core/insights"
)

type insightsAPI struct {
	studentSvc *insights.StudentService
	groupSvc   *insights.GroupService
	systemSvc  *insights.SystemService
}

func registerInsightsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	studentSvc *insights.StudentService,
	groupSvc *insights.GroupService,
	systemSvc *insights.SystemService,
) {
	api := insightsAPI{
		studentSvc: studentSvc,
		groupSvc:   groupSvc,
		systemSvc:  systemSvc,
	}

	ig := g.Group("/insights", jwt)
	ig.GET("/students/:id", api.studentInsight)
	ig.GET("/students/:id/projection", api.studentProjection)
	ig.GET("/groups/:id", api.groupInsight)
	ig.GET("/system", api.systemOverview)
	ig.GET("/system/trends", api.systemTrends)
}

func (api insightsAPI) studentInsight(ctx echo.Context) error {
	ins, err := api.studentSvc.Insight(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ins)
}

func (api insightsAPI) studentProjection(ctx echo.Context) error {
	proj, err := api.studentSvc.Projection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, proj)
}

func (api insightsAPI) groupInsight(ctx echo.Context) error {
	ins, err := api.groupSvc.Insight(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ins)
}

type overviewQuery struct {
	Months int `query:"months" json:"months" validate:"omitempty,oneof=3 6 12"`
}

func (api insightsAPI) systemOverview(ctx echo.Context) error {
	var q overviewQuery
	if err := ctx.Bind(&q); err != nil {
		return core.NewValidationError(err)
	}
	if err := core.Validate.Struct(&q); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.systemSvc.OverviewWithWindow(ctx.Request().Context(), q.Months))
}

func (api insightsAPI) systemTrends(ctx echo.Context) error {
	var q overviewQuery
	if err := ctx.Bind(&q); err != nil {
		return core.NewValidationError(err)
	}
	if err := core.Validate.Struct(&q); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.systemSvc.Analyze(ctx.Request().Context(), q.Months))
}
