package payment

import (
	"context"
	"sync"
	"time"
)

var nowFunc = time.Now // mockable

// Reconciler turns a sequence of provider redirect events into at most one
// registration write, with clear terminal states for the caller to render.
//
// One Reconciler serves exactly one payment attempt. Its processed-transaction
// set is never shared across attempts or users. Events arrive over HTTP and may
// race, so membership check-and-insert happens under the mutex; the lock is
// held across the registration write so a re-delivered callback cannot start
// a second write for the same transaction.
type Reconciler struct {
	intent    Intent
	gateway   Gateway
	registrar Registrar
	marker    string

	mu         sync.Mutex
	state      State
	reason     error // terminal failure reason
	processed  map[string]struct{}
	paymentURL string
}

func NewReconciler(intent Intent, gateway Gateway, registrar Registrar, callbackMarker string) *Reconciler {
	return &Reconciler{
		intent:    intent,
		gateway:   gateway,
		registrar: registrar,
		marker:    callbackMarker,
		state:     Idle,
		processed: make(map[string]struct{}),
	}
}

// InitiatePayment requests a hosted payment page URL from the gateway.
// On success the attempt moves to AwaitingRedirect. On failure the attempt
// stays Idle and the caller may retry.
func (r *Reconciler) InitiatePayment(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		return "", ErrAlreadyInitiated
	}
	payURL, err := r.gateway.PaymentURL(ctx, r.intent.Amount)
	if err != nil {
		return "", &GatewayError{Err: err}
	}
	r.paymentURL = payURL
	r.state = AwaitingRedirect
	return payURL, nil
}

// OnRedirectNavigation processes one navigation event from the embedded
// browsing surface. Non-callback URLs and events after a terminal state are
// no-ops. A transaction ID observed once never triggers a second registration
// write, even if the redirect fires multiple times.
func (r *Reconciler) OnRedirectNavigation(ctx context.Context, rawURL string) Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Terminal() {
		return Event{Kind: EventIgnored}
	}
	cb, err := ParseCallback(rawURL, r.marker)
	if err != nil {
		return Event{Kind: EventIgnored}
	}
	if _, seen := r.processed[cb.TransactionID]; seen {
		return Event{Kind: EventDuplicate, TransactionID: cb.TransactionID}
	}
	if cb.ResponseCode != SuccessCode {
		// a retried payment must be allowed to produce a fresh transaction,
		// so declines are not recorded in the processed set
		r.state = Failed
		r.reason = &DeclinedError{Code: cb.ResponseCode}
		return Event{Kind: EventDeclined, TransactionID: cb.TransactionID, Err: r.reason}
	}

	r.processed[cb.TransactionID] = struct{}{}
	r.state = Processing
	return r.register(ctx, cb.TransactionID)
}

// register performs the dependent registration write. Called with the mutex held.
func (r *Reconciler) register(ctx context.Context, txID string) Event {
	reg := Registration{
		StudentID:        r.intent.StudentID,
		CourseID:         r.intent.CourseID,
		FeePaid:          r.intent.Amount,
		RegistrationDate: nowFunc().UTC(),
		PaymentStatus:    true,
		TransactionID:    txID,
	}
	if err := r.registrar.CreateRegistration(ctx, reg); err != nil {
		// roll back the dedup entry so a corrective retry remains possible
		delete(r.processed, txID)
		regErr := classifyRegistration(err)
		r.state = Failed
		r.reason = regErr
		return Event{Kind: EventRegistrationFailed, TransactionID: txID, Err: regErr}
	}
	r.state = Succeeded
	return Event{Kind: EventRegistered, TransactionID: txID}
}

// Status returns the current state and, for Failed, the terminal reason.
func (r *Reconciler) Status() (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.reason
}

// PaymentURL returns the hosted payment page URL obtained at initiation.
func (r *Reconciler) PaymentURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paymentURL
}

// Intent returns the attempt's intent.
func (r *Reconciler) Intent() Intent {
	return r.intent
}
