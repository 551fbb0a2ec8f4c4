package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/tdvu/courtside/core"
	"github.com/tdvu/courtside/core/payment"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	// NavigationRequest carries one URL observed by the client's embedded
	// browsing surface during the hosted checkout flow.
	NavigationRequest struct {
		URL string `json:"url" validate:"required"`
	}

	// EventResponse reports how a navigation event was classified along with
	// the attempt's resulting status.
	EventResponse struct {
		Event  string                `json:"event"`
		Status payment.AttemptStatus `json:"status"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true)
	return validate.Struct(lr)
}

func (nr *NavigationRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}
