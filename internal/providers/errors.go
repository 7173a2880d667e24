package providers

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/dshills/commitcraft/internal/apperr"
	"github.com/dshills/commitcraft/internal/review"
)

// ErrNoChoices is returned when a choices-style backend answers with an
// empty choices list.
var ErrNoChoices = errors.New("no choices returned")

// StatusError is a non-2xx response from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401/403 from a backend.
func IsAuthError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.StatusCode == 401 || se.StatusCode == 403)
}

// statusError wraps a non-2xx response as a generation error with a hint
// where one can be derived from the status.
func statusError(provider string, code int, body []byte) error {
	err := apperr.Wrap(apperr.KindGeneration, &StatusError{Provider: provider, StatusCode: code, Body: string(body)}, "generation failed")
	switch {
	case code == 401 || code == 403:
		return apperr.WithHint(err, "Check your API key in the config file or environment")
	case code == 404:
		return apperr.WithHint(err, "Check the endpoint URL and model name")
	case code == 429:
		return apperr.WithHint(err, "Rate limited; wait a moment and retry")
	case code >= 500:
		return apperr.WithHint(err, "The service is having trouble; retry later")
	}
	return err
}

// parseError reports a response body that did not match the expected shape.
func parseError(provider string, cause error, body []byte) error {
	return apperr.Wrap(apperr.KindParse, cause,
		"failed to parse %s response. Raw response: %s", provider, review.Preview(string(body)))
}

// transportError classifies a failed round trip.
func transportError(provider, endpoint string, err error) error {
	if errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindCancelled, err, "%s request cancelled", provider)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.WithHint(
			apperr.Wrap(apperr.KindNetwork, err, "%s request timed out", provider),
			"Increase network.request_timeout or check your connection",
		)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return apperr.WithHint(
			apperr.Wrap(apperr.KindNetwork, err, "cannot connect to %s at %s", provider, hostOf(endpoint)),
			"Check that the endpoint is reachable and the service is running",
		)
	}

	return apperr.WithHint(
		apperr.Wrap(apperr.KindNetwork, err, "%s request failed", provider),
		"Check your network connection or proxy settings",
	)
}

func hostOf(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return endpoint
}
