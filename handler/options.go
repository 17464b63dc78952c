package handler

import (
	"github.com/aura-studio/lambdacore/container"
	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/mohae/deepcopy"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Option is the interface for configuring Options
type Option interface {
	Apply(o *Options)
}

// OptionFunc is a function that implements the Option interface
type OptionFunc func(*Options)

// Apply implements the Option interface
func (f OptionFunc) Apply(o *Options) { f(o) }

// Options holds the configuration for a Handler
type Options struct {
	DebugMode bool
	Logger    *logrus.Logger
	Tracer    trace.Tracer
	BuiltIns  container.Instances

	// SQS batches
	PartialMode bool
	SuspendMode bool
}

var defaultOptions = &Options{
	DebugMode:   false,
	BuiltIns:    container.Instances{},
	PartialMode: false,
	SuspendMode: false,
}

// NewOptions creates a new Options instance with the given options applied
func NewOptions(opts ...Option) *Options {
	options := deepcopy.Copy(defaultOptions).(*Options)
	options.init(opts...)
	return options
}

func (o *Options) init(opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(o)
		}
	}
	if o.Logger == nil {
		o.Logger = logging.New(o.DebugMode)
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer("github.com/aura-studio/lambdacore/handler")
	}
}

// WithDebugMode logs every invocation and factory resolution
func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = debug
	})
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return OptionFunc(func(o *Options) {
		o.Logger = logger
	})
}

// WithTracer sets the tracer used for invocation spans
func WithTracer(tracer trace.Tracer) Option {
	return OptionFunc(func(o *Options) {
		o.Tracer = tracer
	})
}

// WithBuiltIns seeds capability handles, usually capability.Registry.Instances()
func WithBuiltIns(in container.Instances) Option {
	return OptionFunc(func(o *Options) {
		if o.BuiltIns == nil {
			o.BuiltIns = container.Instances{}
		}
		o.BuiltIns.Merge(in)
	})
}

// WithPartialMode reports failed SQS records individually so only they are
// retried. Otherwise any failure fails the whole batch.
func WithPartialMode(partial bool) Option {
	return OptionFunc(func(o *Options) {
		o.PartialMode = partial
	})
}

// WithSuspendMode stops an SQS batch at the first failed record.
func WithSuspendMode(suspend bool) Option {
	return OptionFunc(func(o *Options) {
		o.SuspendMode = suspend
	})
}
