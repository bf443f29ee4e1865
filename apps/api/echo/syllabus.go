package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/core/user"
)

type syllabusApi struct {
	svc        syllabus.Service
	validate   *validator.Validate
	translator ut.Translator
}

// documentResponse is returned by every read and write; progress is always derived from document.
type documentResponse struct {
	Document syllabus.Document `json:"document"`
	Progress syllabus.Progress `json:"progress"`
}

func newDocumentResponse(d syllabus.Document) documentResponse {
	return documentResponse{Document: d, Progress: syllabus.ComputeProgress(d)}
}

func registerSyllabusAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc syllabus.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := syllabusApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	sg := g.Group("/syllabus", jwt, readerMiddleware())
	sg.POST("", api.create)
	sg.GET("/:ownerKind/:ownerId/:month", api.retrieve)

	// document endpoints
	sg.PUT("/:documentId", api.update)
	sg.GET("/:documentId/history", api.history)
	sg.PATCH("/:documentId/approve", api.approveAll)

	topic := "/:documentId/weeks/:weekNumber/topics/:topicIndex"
	sg.PATCH(topic+"/approve", api.approveTopic)
	sg.PATCH(topic+"/subtopics/:subtopicIndex", api.completeSubtopic)
	sg.PATCH(topic+"/subtopics/:subtopicIndex/approve", api.approveSubtopic)
}

// Handlers

func (api *syllabusApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	key := syllabus.Key{
		OwnerKind: ctx.Param("ownerKind"),
		OwnerID:   ctx.Param("ownerId"),
		Month:     ctx.Param("month"),
	}
	d, err := api.svc.Get(ctx.Request().Context(), p, key)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDocumentResponse(d))
}

func (api *syllabusApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data syllabus.NewDocument
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDocument")
	}
	data.OwnerID = core.CleanString(data.OwnerID)
	data.Month = core.CleanString(data.Month)
	if err = api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator, nil)
	}

	d, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newDocumentResponse(d))
}

func (api *syllabusApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	var data syllabus.UpdateDocument
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDocument")
	}

	d, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("documentId"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDocumentResponse(d))
}

func (api *syllabusApi) completeSubtopic(ctx echo.Context) error {
	return api.applyToSubtopic(ctx, api.svc.CompleteSubtopic)
}

func (api *syllabusApi) approveSubtopic(ctx echo.Context) error {
	return api.applyToSubtopic(ctx, api.svc.ApproveSubtopic)
}

type subtopicTransition = func(ctx context.Context, p user.Principal, id string, ref syllabus.Ref) (syllabus.Document, error)

func (api *syllabusApi) applyToSubtopic(ctx echo.Context, transition subtopicTransition) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	ref, err := bindRef(ctx)
	if err != nil {
		return err
	}

	d, err := transition(ctx.Request().Context(), p, ctx.Param("documentId"), ref)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDocumentResponse(d))
}

func (api *syllabusApi) approveTopic(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	weekNumber, topicIndex, err := bindTopicAddress(ctx)
	if err != nil {
		return err
	}

	d, err := api.svc.ApproveTopic(ctx.Request().Context(), p, ctx.Param("documentId"), weekNumber, topicIndex)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDocumentResponse(d))
}

func (api *syllabusApi) approveAll(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	d, err := api.svc.ApproveAll(ctx.Request().Context(), p, ctx.Param("documentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newDocumentResponse(d))
}

func (api *syllabusApi) history(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	events, err := api.svc.History(ctx.Request().Context(), p, ctx.Param("documentId"))
	if err != nil {
		return err
	}
	if events == nil {
		events = []syllabus.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}
