package echoapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tdvu/courtside/core"
	"github.com/tdvu/courtside/core/academy"
	"github.com/tdvu/courtside/core/payment"
)

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// mocks

type gatewayMock struct {
	url string
	err error
}

func (g *gatewayMock) PaymentURL(_ context.Context, _ int64) (string, error) {
	return g.url, g.err
}

type registrarMock struct {
	mu   sync.Mutex
	regs []payment.Registration
	err  error
}

func (r *registrarMock) CreateRegistration(_ context.Context, reg payment.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.regs = append(r.regs, reg)
	return nil
}

type academyMock struct {
	academy.Client // panics on anything not overridden

	loginAcct academy.Account
	loginErr  error
}

func (c *academyMock) Login(_ context.Context, _, _ string) (academy.Account, error) {
	return c.loginAcct, c.loginErr
}

func newTestServer(gw *gatewayMock, reg *registrarMock, client academy.Client) (*Server, *core.Config) {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)

	svc := payment.NewService(conf, core.NopLogger{}, gw, reg, nil, validate)
	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         core.NopLogger{},
		PaymentSvc:     svc,
		Academy:        client,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return srv, conf
}
