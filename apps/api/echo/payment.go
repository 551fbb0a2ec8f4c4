package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core/payment"
)

type paymentApi struct {
	svc      *payment.Service
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *payment.Service, validate *validator.Validate) {
	api := paymentApi{svc: svc, validate: validate}

	pg := g.Group("/payments", jwt)
	pg.POST("", api.create)
	pg.POST("/:id/events", api.navigationEvent)
	pg.GET("/:id", api.retrieve)
	pg.DELETE("/:id", api.abandon)
}

// Handlers

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.Intent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Intent")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if data.StudentID == "" {
		data.StudentID = claims.Subject
	}

	status, err := api.svc.Begin(ctx.Request().Context(), data, claims.Email)
	if err != nil {
		gwErr := new(payment.GatewayError)
		if errors.As(err, &gwErr) {
			return errHttpBadGateway
		}
		return err
	}

	return ctx.JSON(http.StatusCreated, status)
}

func (api *paymentApi) navigationEvent(ctx echo.Context) error {
	var data NavigationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NavigationRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id := ctx.Param("id")
	evt, err := api.svc.HandleNavigation(ctx.Request().Context(), id, data.URL)
	if err != nil {
		if errors.Cause(err) == payment.ErrAttemptNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "handling navigation event")
	}

	status, err := api.svc.Get(id)
	if err != nil {
		return errors.Wrap(err, "getting attempt status")
	}
	return ctx.JSON(http.StatusOK, EventResponse{Event: evt.Kind.String(), Status: status})
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	status, err := api.svc.Get(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payment.ErrAttemptNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting attempt status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *paymentApi) abandon(ctx echo.Context) error {
	if err := api.svc.Abandon(ctx.Param("id")); err != nil {
		if errors.Cause(err) == payment.ErrAttemptNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "abandoning attempt")
	}
	return ctx.NoContent(http.StatusNoContent)
}
