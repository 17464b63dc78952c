package handler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aura-studio/lambdacore/internal/configfile"
	yaml "gopkg.in/yaml.v2"
)

// yamlHandlerConfig represents the YAML configuration structure for handler module
type yamlHandlerConfig struct {
	Mode struct {
		Debug bool `yaml:"debug"`
	} `yaml:"mode"`
	SQS struct {
		Partial bool `yaml:"partial"`
		Suspend bool `yaml:"suspend"`
	} `yaml:"sqs"`
}

func optionFromHandlerConfig(cfg yamlHandlerConfig) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Mode.Debug
		o.PartialMode = cfg.SQS.Partial
		o.SuspendMode = cfg.SQS.Suspend
	})
}

// optionFromConfigBytes parses YAML bytes and returns an Option.
// Returns an error if the YAML is invalid.
func optionFromConfigBytes(b []byte) (Option, error) {
	var cfg yamlHandlerConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	return optionFromHandlerConfig(cfg), nil
}

// WithConfig parses YAML bytes following handler.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := optionFromConfigBytes(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("handler.WithConfig: %w", err))
		})
	}
	return opt
}

// WithConfigFile loads a YAML file and applies it to Options.
// It panics if the file cannot be read or YAML is invalid.
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("handler.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}

// DefaultConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default handler config.
func DefaultConfigCandidates() []string {
	return []string{
		"handler.yaml",
		"handler.yml",
		filepath.FromSlash("handler/handler.yaml"),
		filepath.FromSlash("handler/handler.yml"),
	}
}

// FindDefaultConfigFile returns the first of DefaultConfigCandidates found in
// the working directory or next to the executable.
func FindDefaultConfigFile() (string, error) {
	return configfile.Find("handler", DefaultConfigCandidates())
}

// WithDefaultConfigFile finds and loads the default handler config file.
// It panics if the file cannot be found or read.
func WithDefaultConfigFile() Option {
	p, err := FindDefaultConfigFile()
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("handler.WithDefaultConfigFile: %w", err))
		})
	}
	return WithConfigFile(p)
}
