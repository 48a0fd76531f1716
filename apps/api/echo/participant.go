package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core/participant"
)

type participantApi struct {
	svc *participant.Service
}

// Participant contact records are staff-managed; participants interact
// with the system through their linked user accounts instead.
func registerParticipantAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *participant.Service) {
	api := participantApi{svc: svc}

	pg := g.Group("/participants", jwt, staffMiddleware())
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

func (api *participantApi) create(ctx echo.Context) error {
	var data participant.NewParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticipant")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	p, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating participant")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *participantApi) query(ctx echo.Context) error {
	participants, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying participants")
	}
	if participants == nil {
		participants = []participant.Participant{}
	}
	return ctx.JSON(http.StatusOK, participants)
}

func (api *participantApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding participant by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) update(ctx echo.Context) error {
	var data participant.UpdateParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParticipant")
	}

	orig, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding participant by ID")
	}
	if err := data.Validate(orig, api.svc); err != nil {
		return err
	}

	p, err := api.svc.Update(orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating participant")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *participantApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting participant")
	}
	return ctx.NoContent(http.StatusNoContent)
}
