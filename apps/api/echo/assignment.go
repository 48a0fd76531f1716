package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assignment"
)

type assignmentApi struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/status", api.updateStatus)
	ag.POST("/:id/notes", api.addNote)
	ag.DELETE("/:id", api.destroy)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.Create(data, actor)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	var query AssignmentQueryRequest
	if err := ctx.Bind(&query); err != nil {
		return ctx.JSON(http.StatusOK, []assignment.Assignment{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	assignments, err := api.svc.Filter(query.filter(), actor, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.GetByID(ctx.Param("id"), actor)
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) updateStatus(ctx echo.Context) error {
	var data StatusUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.UpdateStatus(ctx.Param("id"), assignment.Status(data.Status), actor)
	if err != nil {
		return errors.Wrap(err, "updating assignment status")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) addNote(ctx echo.Context) error {
	var data NoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NoteRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.AddNote(ctx.Param("id"), data.Text, actor)
	if err != nil {
		return errors.Wrap(err, "adding assignment note")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	if err := api.svc.Delete(ctx.Param("id"), actor); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	AssignmentQueryRequest struct {
		Supervisor  string    `query:"supervisor"`
		Assessor    string    `query:"assessor"`
		Participant string    `query:"participant"`
		Status      string    `query:"status"`
		CreatedFrom time.Time `query:"created_from"`
		CreatedTo   time.Time `query:"created_to"`
	}

	StatusUpdateRequest struct {
		Status string `json:"status" validate:"required"`
	}

	NoteRequest struct {
		Text string `json:"note" validate:"required"`
	}
)

func (qr AssignmentQueryRequest) filter() assignment.QueryFilter {
	return assignment.QueryFilter{
		SupervisorID:  qr.Supervisor,
		AssessorID:    qr.Assessor,
		ParticipantID: qr.Participant,
		Status:        assignment.Status(qr.Status),
		CreatedFrom:   qr.CreatedFrom,
		CreatedTo:     qr.CreatedTo,
	}
}

func (sr *StatusUpdateRequest) Validate() error {
	sr.Status = core.CleanString(sr.Status, true /* lower */)
	return core.Validate.Struct(sr)
}

func (nr *NoteRequest) Validate() error {
	nr.Text = core.CleanString(nr.Text)
	return core.Validate.Struct(nr)
}
