package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core"
	"github.com/tdvu/courtside/core/academy"
)

type authApi struct {
	client   academy.Client
	conf     *core.Config
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, client academy.Client, conf *core.Config, validate *validator.Validate) {
	api := authApi{
		client:   client,
		conf:     conf,
		validate: validate,
	}

	ag := g.Group("/auth")
	// TODO: rate limit `/login`
	ag.POST("/login", api.login)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := api.client.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		apiErr := new(academy.APIError)
		if errors.As(err, &apiErr) && apiErr.Code < http.StatusInternalServerError {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating against backend")
	}
	if !acct.Verified {
		return errAccountNotVerified
	}

	token, err := GenerateToken(api.conf, GetAccountClaims(api.conf, acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
