package container

import (
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

// Options holds the configuration for a Container
type Options struct {
	DebugMode bool
	Logger    *logrus.Logger
	Tracer    trace.Tracer
}

var defaultOptions = &Options{
	DebugMode: false,
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
		o.Tracer = otel.Tracer("github.com/aura-studio/lambdacore/container")
	}
}

// WithDebugMode logs every factory run and cache hit.
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

// WithTracer sets the tracer used for refresh spans
func WithTracer(tracer trace.Tracer) Option {
	return OptionFunc(func(o *Options) {
		o.Tracer = tracer
	})
}
