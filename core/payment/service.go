package payment

import (
	"context"
	"fmt"
	"net/mail"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tdvu/courtside/core"
)

type (
	// AttemptStatus is the renderable snapshot of one payment attempt.
	AttemptStatus struct {
		ID         string `json:"id"`
		State      string `json:"state"`
		PaymentURL string `json:"payment_url,omitempty"`
		Reason     string `json:"reason,omitempty"`
	}

	attempt struct {
		rec   *Reconciler
		email string // receipt recipient; may be empty
	}

	// Service tracks payment attempts for stateless clients. Each attempt gets
	// a fresh Reconciler; nothing here survives a restart, the backend owns
	// every durable record.
	Service struct {
		conf      *core.Config
		logger    core.Logger
		gateway   Gateway
		registrar Registrar
		mailSvc   core.EmailService
		validate  *validator.Validate

		mu       sync.RWMutex
		attempts map[string]*attempt
	}
)

func NewService(
	conf *core.Config,
	logger core.Logger,
	gateway Gateway,
	registrar Registrar,
	mailSvc core.EmailService,
	validate *validator.Validate,
) *Service {
	return &Service{
		conf:      conf,
		logger:    logger,
		gateway:   gateway,
		registrar: registrar,
		mailSvc:   mailSvc,
		validate:  validate,
		attempts:  make(map[string]*attempt),
	}
}

// Begin validates the intent, creates a fresh attempt and initiates payment.
// On a gateway failure no attempt is kept; the caller may simply retry.
func (svc *Service) Begin(ctx context.Context, intent Intent, email string) (AttemptStatus, error) {
	if err := intent.Validate(svc.validate); err != nil {
		return AttemptStatus{}, err
	}

	rec := NewReconciler(intent, svc.gateway, svc.registrar, svc.conf.Gateway.CallbackMarker)
	payURL, err := rec.InitiatePayment(ctx)
	if err != nil {
		return AttemptStatus{}, err
	}

	id := uuid.New().String()
	svc.mu.Lock()
	svc.attempts[id] = &attempt{rec: rec, email: email}
	svc.mu.Unlock()

	svc.logger.Info(fmt.Sprintf("payment attempt %s started: course %s, student %s, amount %d",
		id, intent.CourseID, intent.StudentID, intent.Amount))
	return AttemptStatus{ID: id, State: AwaitingRedirect.String(), PaymentURL: payURL}, nil
}

// HandleNavigation forwards one navigation event from the embedded browsing
// surface to the attempt's Reconciler, in delivery order.
func (svc *Service) HandleNavigation(ctx context.Context, id, rawURL string) (Event, error) {
	att, err := svc.lookup(id)
	if err != nil {
		return Event{}, err
	}

	evt := att.rec.OnRedirectNavigation(ctx, rawURL)
	switch evt.Kind {
	case EventRegistered:
		svc.logger.Info(fmt.Sprintf("payment attempt %s: registration confirmed (tx %s)", id, evt.TransactionID))
		svc.sendReceipt(att, evt.TransactionID)
	case EventRegistrationFailed:
		// money captured but access not granted: the loudest failure we have
		svc.logger.Error(fmt.Sprintf("payment attempt %s: %v", id, evt.Err), evt.Err)
	case EventDeclined:
		svc.logger.Info(fmt.Sprintf("payment attempt %s: declined (tx %s)", id, evt.TransactionID))
	}
	return evt, nil
}

// Get returns the current status of an attempt.
func (svc *Service) Get(id string) (AttemptStatus, error) {
	att, err := svc.lookup(id)
	if err != nil {
		return AttemptStatus{}, err
	}
	state, reason := att.rec.Status()
	status := AttemptStatus{ID: id, State: state.String(), PaymentURL: att.rec.PaymentURL()}
	if reason != nil {
		status.Reason = reason.Error()
	}
	return status, nil
}

// Abandon discards an attempt. No backend compensation is attempted: writes
// only ever happen after a success callback.
func (svc *Service) Abandon(id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, ok := svc.attempts[id]; !ok {
		return ErrAttemptNotFound
	}
	delete(svc.attempts, id)
	return nil
}

func (svc *Service) lookup(id string) (*attempt, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	att, ok := svc.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return att, nil
}

func (svc *Service) sendReceipt(att *attempt, txID string) {
	if svc.mailSvc == nil || att.email == "" {
		return
	}
	intent := att.rec.Intent()
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: att.email}},
		Subject: "Enrollment confirmed",
		BodyStr: fmt.Sprintf(
			"Your payment of %d VND for course %s was received (transaction %s). You now have access to its lessons.",
			intent.Amount, intent.CourseID, txID,
		),
	})
}
