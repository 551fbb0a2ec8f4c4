package payment

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core/academy"
)

const testMarker = "vn-pay-callback"

type gatewayMock struct {
	url   string
	err   error
	calls int
}

func (g *gatewayMock) PaymentURL(_ context.Context, _ int64) (string, error) {
	g.calls++
	return g.url, g.err
}

type registrarMock struct {
	mu    sync.Mutex
	err   error
	calls int
	last  Registration
}

func (r *registrarMock) CreateRegistration(_ context.Context, reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = reg
	return r.err
}

func testIntent() Intent {
	return Intent{Amount: 150000, CourseID: "C1", StudentID: "S1"}
}

func newTestReconciler(gwErr, regErr error) (*Reconciler, *gatewayMock, *registrarMock) {
	gw := &gatewayMock{url: "https://pay/x", err: gwErr}
	reg := &registrarMock{err: regErr}
	return NewReconciler(testIntent(), gw, reg, testMarker), gw, reg
}

func callbackURL(code, txID string) string {
	return "https://app.example/vn-pay-callback?vnp_ResponseCode=" + code + "&vnp_TransactionNo=" + txID
}

func TestReconcilerInitiatePayment(t *testing.T) {
	t.Run("success transitions to AwaitingRedirect", func(t *testing.T) {
		rec, _, _ := newTestReconciler(nil, nil)
		payURL, err := rec.InitiatePayment(context.Background())
		if err != nil {
			t.Fatalf("InitiatePayment() failed: %v", err)
		}
		if payURL != "https://pay/x" {
			t.Errorf("InitiatePayment() = %q, want %q", payURL, "https://pay/x")
		}
		if state, _ := rec.Status(); state != AwaitingRedirect {
			t.Errorf("state = %v, want %v", state, AwaitingRedirect)
		}
	})

	t.Run("gateway failure keeps Idle and allows retry", func(t *testing.T) {
		rec, gw, _ := newTestReconciler(errors.New("boom"), nil)
		_, err := rec.InitiatePayment(context.Background())
		gwErr := new(GatewayError)
		if !errors.As(err, &gwErr) {
			t.Fatalf("InitiatePayment() error = %T, want *GatewayError", err)
		}
		if state, _ := rec.Status(); state != Idle {
			t.Errorf("state = %v, want %v", state, Idle)
		}

		// retry succeeds
		gw.err = nil
		if _, err = rec.InitiatePayment(context.Background()); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if state, _ := rec.Status(); state != AwaitingRedirect {
			t.Errorf("state = %v, want %v", state, AwaitingRedirect)
		}
	})

	t.Run("second initiation rejected", func(t *testing.T) {
		rec, _, _ := newTestReconciler(nil, nil)
		if _, err := rec.InitiatePayment(context.Background()); err != nil {
			t.Fatalf("InitiatePayment() failed: %v", err)
		}
		if _, err := rec.InitiatePayment(context.Background()); errors.Cause(err) != ErrAlreadyInitiated {
			t.Errorf("error = %v, want %v", err, ErrAlreadyInitiated)
		}
	})
}

func TestReconcilerSuccessFlow(t *testing.T) {
	rec, _, reg := newTestReconciler(nil, nil)
	ctx := context.Background()
	if _, err := rec.InitiatePayment(ctx); err != nil {
		t.Fatalf("InitiatePayment() failed: %v", err)
	}

	evt := rec.OnRedirectNavigation(ctx, callbackURL("00", "T1"))
	if evt.Kind != EventRegistered {
		t.Fatalf("event = %v, want %v (err: %v)", evt.Kind, EventRegistered, evt.Err)
	}
	if state, _ := rec.Status(); state != Succeeded {
		t.Errorf("state = %v, want %v", state, Succeeded)
	}
	if reg.calls != 1 {
		t.Errorf("registrar calls = %d, want 1", reg.calls)
	}
	if _, ok := rec.processed["T1"]; !ok {
		t.Error("T1 missing from processed set after success")
	}

	// the registration record carries the intent + transaction
	want := Registration{
		StudentID:     "S1",
		CourseID:      "C1",
		FeePaid:       150000,
		PaymentStatus: true,
		TransactionID: "T1",
	}
	got := reg.last
	got.RegistrationDate = want.RegistrationDate // checked separately
	if got != want {
		t.Errorf("registration = %+v, want %+v", got, want)
	}
	if reg.last.RegistrationDate.IsZero() {
		t.Error("registration date not set")
	}

	// re-delivery of the identical redirect: no second write, state unchanged
	evt = rec.OnRedirectNavigation(ctx, callbackURL("00", "T1"))
	if evt.Kind != EventIgnored {
		t.Errorf("event after terminal = %v, want %v", evt.Kind, EventIgnored)
	}
	if reg.calls != 1 {
		t.Errorf("registrar calls after re-delivery = %d, want 1", reg.calls)
	}
	if state, _ := rec.Status(); state != Succeeded {
		t.Errorf("state = %v, want %v", state, Succeeded)
	}
}

func TestReconcilerDuplicateDelivery(t *testing.T) {
	// a duplicate arriving while the attempt is NOT yet terminal must hit the
	// dedup set, not the registrar; simulate by pre-seeding the set
	rec, _, reg := newTestReconciler(nil, nil)
	ctx := context.Background()
	if _, err := rec.InitiatePayment(ctx); err != nil {
		t.Fatalf("InitiatePayment() failed: %v", err)
	}
	rec.processed["T1"] = struct{}{}

	evt := rec.OnRedirectNavigation(ctx, callbackURL("00", "T1"))
	if evt.Kind != EventDuplicate {
		t.Fatalf("event = %v, want %v", evt.Kind, EventDuplicate)
	}
	if reg.calls != 0 {
		t.Errorf("registrar calls = %d, want 0", reg.calls)
	}
	if state, _ := rec.Status(); state != AwaitingRedirect {
		t.Errorf("state = %v, want %v", state, AwaitingRedirect)
	}
}

func TestReconcilerDecline(t *testing.T) {
	rec, _, reg := newTestReconciler(nil, nil)
	ctx := context.Background()
	if _, err := rec.InitiatePayment(ctx); err != nil {
		t.Fatalf("InitiatePayment() failed: %v", err)
	}

	evt := rec.OnRedirectNavigation(ctx, callbackURL("07", "T2"))
	if evt.Kind != EventDeclined {
		t.Fatalf("event = %v, want %v", evt.Kind, EventDeclined)
	}
	declined := new(DeclinedError)
	if !errors.As(evt.Err, &declined) || declined.Code != "07" {
		t.Errorf("event err = %v, want DeclinedError with code 07", evt.Err)
	}
	if reg.calls != 0 {
		t.Errorf("registrar calls = %d, want 0", reg.calls)
	}
	if state, reason := rec.Status(); state != Failed || reason == nil {
		t.Errorf("status = (%v, %v), want (Failed, DeclinedError)", state, reason)
	}
	if _, ok := rec.processed["T2"]; ok {
		t.Error("declined transaction must not enter the processed set")
	}
}

func TestReconcilerRegistrationFailures(t *testing.T) {
	tests := []struct {
		name     string
		regErr   error
		wantKind RegistrationErrorKind
	}{
		{
			name:     "backend rejected",
			regErr:   &academy.APIError{Code: 409, Message: "already registered"},
			wantKind: RegistrationRejected,
		},
		{
			name:     "wrapped backend rejection",
			regErr:   errors.Wrap(&academy.APIError{Code: 500, Message: "oops"}, "creating registration"),
			wantKind: RegistrationRejected,
		},
		{
			name:     "backend unreachable",
			regErr:   &url.Error{Op: "Post", URL: "http://backend/registrations", Err: errors.New("connection refused")},
			wantKind: RegistrationUnreachable,
		},
		{
			name:     "context deadline",
			regErr:   context.DeadlineExceeded,
			wantKind: RegistrationUnreachable,
		},
		{
			name:     "anything else",
			regErr:   errors.New("wat"),
			wantKind: RegistrationUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, reg := newTestReconciler(nil, tt.regErr)
			ctx := context.Background()
			if _, err := rec.InitiatePayment(ctx); err != nil {
				t.Fatalf("InitiatePayment() failed: %v", err)
			}

			evt := rec.OnRedirectNavigation(ctx, callbackURL("00", "T9"))
			if evt.Kind != EventRegistrationFailed {
				t.Fatalf("event = %v, want %v", evt.Kind, EventRegistrationFailed)
			}
			regErr := new(RegistrationError)
			if !errors.As(evt.Err, &regErr) {
				t.Fatalf("event err = %T, want *RegistrationError", evt.Err)
			}
			if regErr.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", regErr.Kind, tt.wantKind)
			}
			if state, _ := rec.Status(); state != Failed {
				t.Errorf("state = %v, want %v", state, Failed)
			}
			// the dedup entry is rolled back so a corrective retry stays possible
			if _, ok := rec.processed["T9"]; ok {
				t.Error("failed transaction must be removed from the processed set")
			}
			if reg.calls != 1 {
				t.Errorf("registrar calls = %d, want 1", reg.calls)
			}
		})
	}
}

func TestReconcilerIgnoresUnrelatedNavigation(t *testing.T) {
	rec, _, reg := newTestReconciler(nil, nil)
	ctx := context.Background()
	if _, err := rec.InitiatePayment(ctx); err != nil {
		t.Fatalf("InitiatePayment() failed: %v", err)
	}

	urls := []string{
		"https://pay.example/checkout",
		"https://pay.example/checkout/otp?step=2",
		"about:blank",
		"https://app.example/home?vnp_ResponseCode=00", // marker absent
	}
	for _, u := range urls {
		if evt := rec.OnRedirectNavigation(ctx, u); evt.Kind != EventIgnored {
			t.Errorf("OnRedirectNavigation(%q) = %v, want %v", u, evt.Kind, EventIgnored)
		}
	}
	if state, _ := rec.Status(); state != AwaitingRedirect {
		t.Errorf("state = %v, want %v", state, AwaitingRedirect)
	}
	if reg.calls != 0 {
		t.Errorf("registrar calls = %d, want 0", reg.calls)
	}
}

func TestReconcilerConcurrentRedelivery(t *testing.T) {
	// concurrent deliveries of the same redirect: exactly one write
	rec, _, reg := newTestReconciler(nil, nil)
	ctx := context.Background()
	if _, err := rec.InitiatePayment(ctx); err != nil {
		t.Fatalf("InitiatePayment() failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.OnRedirectNavigation(ctx, callbackURL("00", "T1"))
		}()
	}
	wg.Wait()

	if reg.calls != 1 {
		t.Errorf("registrar calls = %d, want 1", reg.calls)
	}
	if state, _ := rec.Status(); state != Succeeded {
		t.Errorf("state = %v, want %v", state, Succeeded)
	}
}
