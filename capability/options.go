package capability

import (
	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/mohae/deepcopy"
	"github.com/sirupsen/logrus"
)

// Option is the interface for configuring Options
type Option interface {
	Apply(o *Options)
}

// OptionFunc is a function that implements the Option interface
type OptionFunc func(*Options)

// Apply implements the Option interface
func (f OptionFunc) Apply(o *Options) { f(o) }

// Options holds the configuration for a Registry
type Options struct {
	Region    string
	Disabled  map[string]bool
	Overrides map[string]any
	AWSConfig *aws.Config
	DebugMode bool
	Logger    *logrus.Logger
}

var defaultOptions = &Options{
	Region:    "",
	Disabled:  map[string]bool{},
	Overrides: map[string]any{},
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
}

// WithRegion overrides the region of the shared AWS config
func WithRegion(region string) Option {
	return OptionFunc(func(o *Options) {
		o.Region = region
	})
}

// WithAWSConfig uses cfg instead of loading the shared AWS config
func WithAWSConfig(cfg aws.Config) Option {
	return OptionFunc(func(o *Options) {
		o.AWSConfig = &cfg
	})
}

// WithDisabled skips building the named capabilities
func WithDisabled(keys ...string) Option {
	return OptionFunc(func(o *Options) {
		for _, k := range keys {
			o.Disabled[k] = true
		}
	})
}

// WithInstance registers handle under key, replacing the built-in client if any
func WithInstance(key string, handle any) Option {
	return OptionFunc(func(o *Options) {
		o.Overrides[key] = handle
	})
}

// WithDebugMode sets the debug mode
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
