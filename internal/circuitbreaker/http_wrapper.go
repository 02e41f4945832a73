package circuitbreaker

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// HTTPWrapper wraps an http.Client with a circuit breaker. Used for calls
// to external model providers so a flapping endpoint fails fast instead of
// holding the workflow on timeouts.
type HTTPWrapper struct {
	client *http.Client
	cb     *CircuitBreaker
	logger *zap.Logger
}

// NewHTTPWrapper creates an HTTP wrapper with circuit breaker
func NewHTTPWrapper(name string, client *http.Client, logger *zap.Logger) *HTTPWrapper {
	return &HTTPWrapper{
		client: client,
		cb:     New(name, DefaultConfig(), logger),
		logger: logger,
	}
}

// Do executes the request through the circuit breaker. Server-side errors
// (5xx) count as failures; 4xx responses do not, since they indicate a
// request problem rather than an unhealthy backend.
func (hw *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response

	err := hw.cb.Execute(req.Context(), func() error {
		var doErr error
		resp, doErr = hw.client.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	})

	if err != nil {
		if resp != nil && resp.StatusCode >= 500 {
			// Caller still gets the response body for diagnostics
			return resp, err
		}
		return nil, err
	}
	return resp, nil
}

// State returns the current breaker state.
func (hw *HTTPWrapper) State() State {
	return hw.cb.State()
}
