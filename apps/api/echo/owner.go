package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
)

var ownerOrderingColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"kind":      "kind",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type ownerApi struct {
	svc        owner.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerOwnerAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc owner.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := ownerApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	og := g.Group("/owners", jwt, adminMiddleware())
	og.POST("", api.create)
	og.GET("", api.query)
	og.GET("/:ownerId", api.retrieve)
	og.PUT("/:ownerId", api.update)
}

// Handlers

func (api *ownerApi) create(ctx echo.Context) error {
	var data owner.NewOwner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOwner")
	}
	if err := data.Validate(api.validate); err != nil {
		return core.TranslateValidationErrors(err, api.translator, nil)
	}

	o, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, o)
}

func (api *ownerApi) query(ctx echo.Context) error {
	var filter owner.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	var ord Ordering
	if err := ord.Bind(ctx, ownerOrderingColumns); err != nil {
		return err
	}

	owners, err := api.svc.Query(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return err
	}
	if owners == nil {
		owners = []owner.Owner{}
	}
	return ctx.JSON(http.StatusOK, owners)
}

func (api *ownerApi) retrieve(ctx echo.Context) error {
	o, err := api.svc.Get(ctx.Request().Context(), ctx.Param("ownerId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *ownerApi) update(ctx echo.Context) error {
	var data owner.UpdateOwner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOwner")
	}
	if err := data.Validate(api.validate); err != nil {
		return core.TranslateValidationErrors(err, api.translator, nil)
	}

	o, err := api.svc.Update(ctx.Request().Context(), ctx.Param("ownerId"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}
