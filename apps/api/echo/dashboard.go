package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *dashboard.Service) {
	api := dashboardApi{svc: svc}

	g.GET("/dashboard", api.overview, jwt)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	months, _ := strconv.Atoi(ctx.QueryParam("months")) // out-of-range values are clamped
	overview, err := api.svc.Overview(actor, months)
	if err != nil {
		return errors.Wrap(err, "building dashboard overview")
	}
	return ctx.JSON(http.StatusOK, overview)
}
