package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assessment"
)

type assessmentApi struct {
	svc *assessment.Service
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assessment.Service) {
	api := assessmentApi{svc: svc}

	ag := g.Group("/assessments", jwt)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/classification", api.classification)
	ag.PUT("/:id/progress", api.saveProgress)
	ag.POST("/:id/submit", api.submit)
	ag.POST("/:id/review", api.review, staffMiddleware())
	ag.DELETE("/:id", api.destroy)
}

func (api *assessmentApi) create(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.Create(data, actor)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	var query AssessmentQueryRequest
	if err := ctx.Bind(&query); err != nil {
		return ctx.JSON(http.StatusOK, []assessment.Assessment{})
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	assessments, err := api.svc.Filter(query.filter(), actor)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if assessments == nil {
		assessments = []assessment.Assessment{}
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.GetByID(ctx.Param("id"), actor)
	if err != nil {
		return errors.Wrap(err, "finding assessment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

// classification breaks the assessment down into strengths, needs and
// per-section averages.
func (api *assessmentApi) classification(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.GetByID(ctx.Param("id"), actor)
	if err != nil {
		return errors.Wrap(err, "finding assessment by ID")
	}
	return ctx.JSON(http.StatusOK, assessment.Classify(a.SectionTitles, a.Questions, a.Responses))
}

func (api *assessmentApi) saveProgress(ctx echo.Context) error {
	var data assessment.ProgressUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressUpdate")
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.UpdateProgress(ctx.Param("id"), data, actor)
	if err != nil {
		return errors.Wrap(err, "saving assessment progress")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) submit(ctx echo.Context) error {
	var data assessment.ProgressUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressUpdate")
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.Submit(ctx.Param("id"), data, actor)
	if err != nil {
		return errors.Wrap(err, "submitting assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) review(ctx echo.Context) error {
	var data ReviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}
	data.Notes = core.CleanString(data.Notes)

	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	a, err := api.svc.Review(ctx.Param("id"), data.Notes, actor)
	if err != nil {
		return errors.Wrap(err, "reviewing assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	if err := api.svc.Delete(ctx.Param("id"), actor); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	AssessmentQueryRequest struct {
		Assessor        string    `query:"assessor"`
		ParticipantUser string    `query:"participant_user"`
		Assignment      string    `query:"assignment"`
		Status          string    `query:"status"`
		CreatedFrom     time.Time `query:"created_from"`
		CreatedTo       time.Time `query:"created_to"`
	}

	ReviewRequest struct {
		Notes string `json:"notes"`
	}
)

func (qr AssessmentQueryRequest) filter() assessment.QueryFilter {
	return assessment.QueryFilter{
		AssessorID:        qr.Assessor,
		ParticipantUserID: qr.ParticipantUser,
		AssignmentID:      qr.Assignment,
		Status:            assessment.Status(qr.Status),
		CreatedFrom:       qr.CreatedFrom,
		CreatedTo:         qr.CreatedTo,
	}
}
