// Package server wires the capability registry, the handler and the invoker
// into a runnable Lambda function.
package server

import (
	"context"
	"fmt"

	"github.com/aura-studio/lambdacore/capability"
	"github.com/aura-studio/lambdacore/handler"
	"github.com/aura-studio/lambdacore/invoke"
)

// Runtime is handed to Setup so the app can register factories that depend on
// the capability handles or on other functions.
type Runtime struct {
	*Options
	Registry *capability.Registry
}

// Invoker returns an Invoker for functionName that reuses the registry's
// Lambda client.
func (r *Runtime) Invoker(ctx context.Context, functionName string, opts ...invoke.Option) (*invoke.Invoker, error) {
	all := make([]invoke.Option, 0, len(r.Invoke)+len(opts)+1)
	if client, ok := r.Registry.LambdaClient(); ok {
		all = append(all, invoke.WithLambdaClient(client))
	}
	all = append(all, r.Invoke...)
	all = append(all, opts...)
	return invoke.New(ctx, functionName, all...)
}

// Setup registers the app's factories and processors.
type Setup func(b *handler.Builder, rt *Runtime)

// NewHandler builds the registry, seeds its handles as built-ins, runs setup
// and returns the finished handler.
func NewHandler(ctx context.Context, app handler.App, setup Setup, opts ...Option) (*handler.Handler, error) {
	options := NewOptions(opts...)

	registry, err := capability.NewRegistry(ctx, options.Capability...)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	handlerOpts := append([]handler.Option{handler.WithBuiltIns(registry.Instances())}, options.Handler...)
	b := handler.New(app, handlerOpts...)
	if setup != nil {
		setup(b, &Runtime{Options: options, Registry: registry})
	}
	return b.Build()
}

// Serve builds the handler and hands it to the Lambda runtime for the
// configured trigger. It only returns when the handler cannot be built.
func Serve(ctx context.Context, app handler.App, setup Setup, opts ...Option) error {
	options := NewOptions(opts...)
	switch options.Trigger {
	case "", TriggerDirect, TriggerSQS:
	default:
		return fmt.Errorf("server: unknown trigger %q", options.Trigger)
	}

	h, err := NewHandler(ctx, app, setup, opts...)
	if err != nil {
		return err
	}

	switch options.Trigger {
	case TriggerSQS:
		handler.ServeSQS(h)
	default:
		handler.Serve(h)
	}
	return nil
}

// Close stops the served handler.
func Close() {
	handler.Close()
}
