package vnpaysvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core"
	"github.com/tdvu/courtside/core/payment"
)

// Gateway requests hosted checkout URLs from the VNPay bridge exposed by the
// platform backend.
type Gateway struct {
	baseURL  string
	bankCode string
	http     *http.Client
}

var _ payment.Gateway = (*Gateway)(nil)

func NewGateway(conf *core.Config) *Gateway {
	return &Gateway{
		baseURL:  strings.TrimRight(conf.Gateway.BaseURL, "/"),
		bankCode: conf.Gateway.BankCode,
		http:     &http.Client{Timeout: conf.Gateway.Timeout},
	}
}

// PaymentURL asks the bridge to create a checkout session for amount (VND)
// and returns the redirect URL the payer must be sent to.
func (g *Gateway) PaymentURL(ctx context.Context, amount int64) (string, error) {
	query := url.Values{
		"amount":   {strconv.FormatInt(amount, 10)},
		"bankCode": {g.bankCode},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/vn-pay?"+query.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "building request")
	}

	res, err := g.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "requesting checkout session")
	}
	defer res.Body.Close()

	var env struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			PaymentURL string `json:"paymentUrl"`
		} `json:"data"`
	}
	if err = json.NewDecoder(res.Body).Decode(&env); err != nil {
		return "", errors.Wrap(err, "decoding checkout response")
	}
	if env.Code != http.StatusOK {
		return "", errors.Errorf("checkout rejected: %d %s", env.Code, env.Message)
	}
	if env.Data.PaymentURL == "" {
		return "", errors.New("checkout response carries no payment url")
	}
	return env.Data.PaymentURL, nil
}
