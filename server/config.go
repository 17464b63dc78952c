package server

import (
	"fmt"
	"os"

	"github.com/aura-studio/lambdacore/capability"
	"github.com/aura-studio/lambdacore/handler"
	"github.com/aura-studio/lambdacore/internal/configfile"
	"github.com/aura-studio/lambdacore/invoke"
	yaml "gopkg.in/yaml.v2"
)

type yamlServerConfig struct {
	Trigger    string `yaml:"trigger"`
	Handler    any    `yaml:"handler"`
	Capability any    `yaml:"capability"`
	Invoke     any    `yaml:"invoke"`
}

type Option interface {
	Apply(*Options)
}

// Options collects the options of every component started by the server.
type Options struct {
	Trigger    string
	Handler    []handler.Option
	Capability []capability.Option
	Invoke     []invoke.Option
}

type OptionFunc func(*Options)

func (f OptionFunc) Apply(o *Options) { f(o) }

func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(options)
		}
	}
	return options
}

// Event sources the handler can be served for.
const (
	TriggerDirect = "direct"
	TriggerSQS    = "sqs"
)

// WithTrigger selects the event source: TriggerDirect (default) or TriggerSQS.
func WithTrigger(trigger string) Option {
	return OptionFunc(func(o *Options) {
		o.Trigger = trigger
	})
}

// WithHandlerOptions appends handler options.
func WithHandlerOptions(opts ...handler.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Handler = append(o.Handler, opts...)
	})
}

// WithCapabilityOptions appends capability registry options.
func WithCapabilityOptions(opts ...capability.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Capability = append(o.Capability, opts...)
	})
}

// WithInvokeOptions appends options shared by every Invoker the runtime creates.
func WithInvokeOptions(opts ...invoke.Option) Option {
	return OptionFunc(func(o *Options) {
		o.Invoke = append(o.Invoke, opts...)
	})
}

// WithDebugMode turns on debug logging in every component.
func WithDebugMode(debug bool) Option {
	return OptionFunc(func(o *Options) {
		o.Handler = append(o.Handler, handler.WithDebugMode(debug))
		o.Capability = append(o.Capability, capability.WithDebugMode(debug))
		o.Invoke = append(o.Invoke, invoke.WithDebugMode(debug))
	})
}

// section re-encodes one top-level section so it can be handed to the
// component's own WithConfig.
func section(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("server.WithConfig: %w", err))
	}
	return b
}

// WithConfig parses YAML bytes following lambda.yml structure. Each of the
// handler, capability and invoke sections uses that package's own layout.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	var cfg yamlServerConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		panic(fmt.Errorf("server.WithConfig: %w", err))
	}

	var (
		handlerOpt    handler.Option
		capabilityOpt capability.Option
		invokeOpt     invoke.Option
	)
	if b := section(cfg.Handler); b != nil {
		handlerOpt = handler.WithConfig(b)
	}
	if b := section(cfg.Capability); b != nil {
		capabilityOpt = capability.WithConfig(b)
	}
	if b := section(cfg.Invoke); b != nil {
		invokeOpt = invoke.WithConfig(b)
	}

	return OptionFunc(func(o *Options) {
		if cfg.Trigger != "" {
			o.Trigger = cfg.Trigger
		}
		if handlerOpt != nil {
			o.Handler = append(o.Handler, handlerOpt)
		}
		if capabilityOpt != nil {
			o.Capability = append(o.Capability, capabilityOpt)
		}
		if invokeOpt != nil {
			o.Invoke = append(o.Invoke, invokeOpt)
		}
	})
}

// WithConfigFile loads a YAML file and applies it as an Option.
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("server.WithConfigFile(%s): %w", path, err))
	}
	return WithConfig(b)
}

// DefaultConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default server config.
func DefaultConfigCandidates() []string {
	return []string{
		"lambda.yaml",
		"lambda.yml",
		"server.yaml",
		"server.yml",
		"bootstrap.yaml",
		"bootstrap.yml",
	}
}

// FindDefaultConfigFile returns the first of DefaultConfigCandidates found in
// the working directory or next to the executable.
func FindDefaultConfigFile() (string, error) {
	return configfile.Find("server", DefaultConfigCandidates())
}

// WithDefaultConfigFile loads the composed lambda.yml when one exists.
// Otherwise each component picks up its own file (handler.yml,
// capability.yml, invoke.yml) if present. Missing files are not an error,
// since a function may run on defaults alone.
func WithDefaultConfigFile() Option {
	if p, err := FindDefaultConfigFile(); err == nil {
		return WithConfigFile(p)
	}

	var (
		handlerOpt    handler.Option
		capabilityOpt capability.Option
		invokeOpt     invoke.Option
	)
	if p, err := handler.FindDefaultConfigFile(); err == nil {
		handlerOpt = handler.WithConfigFile(p)
	}
	if p, err := capability.FindDefaultConfigFile(); err == nil {
		capabilityOpt = capability.WithConfigFile(p)
	}
	if p, err := invoke.FindDefaultConfigFile(); err == nil {
		invokeOpt = invoke.WithConfigFile(p)
	}

	return OptionFunc(func(o *Options) {
		if handlerOpt != nil {
			o.Handler = append(o.Handler, handlerOpt)
		}
		if capabilityOpt != nil {
			o.Capability = append(o.Capability, capabilityOpt)
		}
		if invokeOpt != nil {
			o.Invoke = append(o.Invoke, invokeOpt)
		}
	})
}
