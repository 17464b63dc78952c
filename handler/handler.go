// Package handler adapts an application function to the Lambda runtime.
//
// For every invocation the Handler seeds the request-scoped "event" and
// "context" instances, refreshes the dependency container, calls the app with
// the resolved instances, runs the result processors and reports the outcome
// through a completion callback. Failures never escape as panics; they are
// always delivered to the callback.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aura-studio/lambdacore/container"
	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request-scoped instance keys.
const (
	EventKey   = "event"
	ContextKey = "context"
)

// ErrStopped is reported for invocations received after Stop.
var ErrStopped = errors.New("handler: engine is stopped")

// App is the user handler. in holds every resolved instance.
type App func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error)

// Callback receives the outcome of one invocation.
type Callback func(err error, result any)

// ResultProcessor transforms the app's result.
type ResultProcessor func(ctx context.Context, result any) (any, error)

// Handler runs one app against a shared dependency container.
type Handler struct {
	*Options
	app              App
	container        *container.Container
	resultProcessors []ResultProcessor

	// mu keeps request seeding and resolution of one invocation together.
	mu      sync.Mutex
	running atomic.Int32
}

// Container returns the dependency container shared by all invocations.
func (h *Handler) Container() *container.Container {
	return h.container
}

// Start lets the handler accept invocations again.
func (h *Handler) Start() {
	h.running.Store(1)
}

// Stop makes the handler reject new invocations with ErrStopped.
func (h *Handler) Stop() {
	h.running.Store(0)
}

// IsRunning reports whether the handler accepts invocations.
func (h *Handler) IsRunning() bool {
	return h.running.Load() == 1
}

// Invoke runs one invocation and reports it through callback.
func (h *Handler) Invoke(ctx context.Context, event json.RawMessage, callback Callback) {
	result, err := h.run(ctx, event)
	if callback != nil {
		callback(err, result)
	}
}

// Handle adapts Invoke to the signature expected by lambda.Start.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (any, error) {
	var (
		result any
		err    error
	)
	h.Invoke(ctx, event, func(e error, r any) {
		err = e
		result = r
	})
	return result, err
}

func (h *Handler) run(ctx context.Context, event json.RawMessage) (result any, err error) {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		lc = &lambdacontext.LambdaContext{AwsRequestID: uuid.NewString()}
		ctx = lambdacontext.NewContext(ctx, lc)
	}
	log := logging.Entry(h.Logger, "handler").WithField("requestId", lc.AwsRequestID)

	ctx, span := h.Tracer.Start(ctx, "handler.Invoke",
		trace.WithAttributes(attribute.String("faas.invocation_id", lc.AwsRequestID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("handler: panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if h.DebugMode {
				log.Debugf("[Handler] Error: %v", err)
			}
		}
	}()

	if !h.IsRunning() {
		return nil, ErrStopped
	}

	if h.DebugMode {
		log.Debugf("[Handler] Request: %s", string(event))
	}

	in, err := h.resolve(ctx, event, lc)
	if err != nil {
		return nil, err
	}

	result, err = h.app(ctx, event, in)
	if err != nil {
		return nil, err
	}

	for _, p := range h.resultProcessors {
		result, err = p(ctx, result)
		if err != nil {
			return nil, err
		}
	}

	if h.DebugMode {
		log.Debugf("[Handler] Response: %v", result)
	}
	return result, nil
}

func (h *Handler) resolve(ctx context.Context, event json.RawMessage, lc *lambdacontext.LambdaContext) (container.Instances, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.container.RegisterInstances(container.Instances{
		EventKey:   event,
		ContextKey: lc,
	})
	return h.container.Refresh(ctx)
}
