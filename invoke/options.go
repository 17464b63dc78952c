package invoke

import (
	"context"
	"time"

	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/mohae/deepcopy"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// LambdaClient is the part of the Lambda API the Invoker needs.
type LambdaClient interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput,
		optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Option is the interface for configuring Options
type Option interface {
	Apply(o *Options)
}

// OptionFunc is a function that implements the Option interface
type OptionFunc func(*Options)

// Apply implements the Option interface
func (f OptionFunc) Apply(o *Options) { f(o) }

// Options holds the configuration for an Invoker
type Options struct {
	LambdaClient   LambdaClient
	Region         string
	DefaultTimeout time.Duration
	DebugMode      bool
	Logger         *logrus.Logger
	Tracer         trace.Tracer
}

var defaultOptions = &Options{
	DefaultTimeout: 30 * time.Second,
	DebugMode:      false,
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
		o.Tracer = otel.Tracer("github.com/aura-studio/lambdacore/invoke")
	}
}

// WithLambdaClient overrides the client used to reach the Lambda API
func WithLambdaClient(client LambdaClient) Option {
	return OptionFunc(func(o *Options) {
		o.LambdaClient = client
	})
}

// WithRegion sets the region of the default client
func WithRegion(region string) Option {
	return OptionFunc(func(o *Options) {
		o.Region = region
	})
}

// WithDefaultTimeout bounds calls made with a context that has no deadline.
// Zero disables the bound.
func WithDefaultTimeout(timeout time.Duration) Option {
	return OptionFunc(func(o *Options) {
		o.DefaultTimeout = timeout
	})
}

// WithDebugMode logs every request and response
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
