package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tdvu/courtside/core"
)

// SuccessCode is the response code the provider sends for a completed payment.
const SuccessCode = "00"

// query parameters carried by the provider's callback redirect
const (
	paramResponseCode  = "vnp_ResponseCode"
	paramTransactionNo = "vnp_TransactionNo"
)

type (
	// Intent represents one attempt to pay for one course enrollment.
	// Amount is in the smallest currency unit agreed with the provider (VND).
	Intent struct {
		Amount    int64  `json:"amount" validate:"required,gt=0"`
		CourseID  string `json:"course_id" validate:"required"`
		StudentID string `json:"student_id" validate:"required"`
	}

	// Callback is the provider's response extracted from a redirect URL.
	Callback struct {
		ResponseCode  string
		TransactionID string
	}

	// Registration is the backend write that grants a student access to a paid course.
	Registration struct {
		StudentID        string    `json:"studentId"`
		CourseID         string    `json:"courseId"`
		FeePaid          int64     `json:"feePaid"`
		RegistrationDate time.Time `json:"registrationDate"`
		PaymentStatus    bool      `json:"paymentStatus"`
		TransactionID    string    `json:"transactionId"`
	}

	// Gateway obtains a hosted payment page URL from the payment provider.
	Gateway interface {
		PaymentURL(ctx context.Context, amount int64) (string, error)
	}

	// Registrar performs the registration write against the backend.
	Registrar interface {
		CreateRegistration(ctx context.Context, reg Registration) error
	}
)

func (in *Intent) Validate(validate *validator.Validate) error {
	in.CourseID = core.CleanString(in.CourseID)
	in.StudentID = core.CleanString(in.StudentID)
	return validate.Struct(in)
}

// State is the reconciliation state of one payment attempt.
type State int

const (
	Idle State = iota
	AwaitingRedirect
	Processing
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Idle:             "idle",
	AwaitingRedirect: "awaiting_redirect",
	Processing:       "processing",
	Succeeded:        "succeeded",
	Failed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// EventKind classifies the outcome of one redirect navigation event.
type EventKind int

const (
	// EventIgnored: the URL is not a provider callback, or the attempt is already terminal.
	EventIgnored EventKind = iota
	// EventDuplicate: this transaction was already acted upon; no write was issued.
	EventDuplicate
	// EventDeclined: the provider reported a non-success code; no money moved.
	EventDeclined
	// EventRegistered: payment succeeded and the registration write was acknowledged.
	EventRegistered
	// EventRegistrationFailed: payment succeeded but the registration write did not.
	EventRegistrationFailed
)

var eventNames = map[EventKind]string{
	EventIgnored:            "ignored",
	EventDuplicate:          "duplicate",
	EventDeclined:           "declined",
	EventRegistered:         "registered",
	EventRegistrationFailed: "registration_failed",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is the result of processing one navigation event.
type Event struct {
	Kind          EventKind
	TransactionID string
	Err           error
}
