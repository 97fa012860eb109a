// Package breaker implements C7: a gobreaker.CircuitBreaker wrapping
// C6.Route, short-circuiting with 503 while OPEN and admitting a single
// probe on HALF-OPEN. Grounded on the gobreaker wiring
// pattern from the pack's execution-service circuit breaker (settings
// struct, ReadyToTrip on error ratio, OnStateChange logging).
package breaker

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/pkg/router"
	"github.com/jordigilh/intentrouter/pkg/types"
)

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}

// Config holds the circuit breaker's tunables.
type Config struct {
	ErrorThresholdPercent float64
	CallTimeoutMillis int
	ResetTimeoutMillis int
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		ErrorThresholdPercent: 50,
		CallTimeoutMillis: 30000,
		ResetTimeoutMillis: 30000,
	}
}

// Breaker is C7.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
	router *router.Router
	cfg Config
	log *zap.Logger
}

// New wraps router behind a circuit breaker configured per cfg.
func New(r *router.Router, cfg Config, log *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name: "meta-router",
		MaxRequests: 1,
		Interval: 0,
		Timeout: time.Duration(cfg.ResetTimeoutMillis) * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio*100 >= cfg.ErrorThresholdPercent
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("breaker: state changed", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return &Breaker{
		cb: gobreaker.NewCircuitBreaker(settings),
		router: r,
		cfg: cfg,
		log: log,
	}
}

// Route admits the call to the underlying router under the breaker's
// current state. A call exceeding callTimeoutMillis counts as a failure.
func (b *Breaker) Route(ctx context.Context, req *types.IntentRequest, body []byte) (*router.Response, *types.IntentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(b.cfg.CallTimeoutMillis)*time.Millisecond)
	defer cancel()

	type result struct {
		resp *router.Response
		classified *types.IntentResponse
	}

	raw, err := b.cb.Execute(func() (any, error) {
		resp, classified, err := b.router.Route(callCtx, req, body)
		if err != nil {
			return nil, err
		}
		if callCtx.Err() != nil {
			return nil, callCtx.Err()
		}
		return result{resp: resp, classified: classified}, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			retryAfterSeconds := strconv.Itoa(b.cfg.ResetTimeoutMillis / 1000)
			return &router.Response{
				Status: http.StatusServiceUnavailable,
				Headers: map[string]string{
					"Retry-After": retryAfterSeconds,
				},
				Body: mustJSON(map[string]string{"error": "circuit breaker open, try again later"}),
			}, nil, nil
		}
		return nil, nil, err
	}

	r := raw.(result)
	return r.resp, r.classified, nil
}

// State exposes the current breaker state for health/metrics endpoints.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
