package payment

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotCallback marks a navigation URL that is not a provider callback.
// Such events cause no state change.
var ErrNotCallback = errors.New("not a payment callback URL")

// ParseCallback extracts the provider response from a redirect URL.
// Embedded browsing surfaces deliver every navigation event, not just the
// callback; only URLs whose path contains the marker are callbacks.
func ParseCallback(rawURL, marker string) (Callback, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Callback{}, ErrNotCallback
	}
	if marker == "" || !strings.Contains(u.Path, marker) {
		return Callback{}, ErrNotCallback
	}
	q := u.Query()
	return Callback{
		ResponseCode:  q.Get(paramResponseCode),
		TransactionID: q.Get(paramTransactionNo),
	}, nil
}
