package invoke

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aura-studio/lambdacore/internal/configfile"
	yaml "gopkg.in/yaml.v2"
)

// yamlInvokeConfig represents the YAML configuration structure for invoke module
type yamlInvokeConfig struct {
	Mode struct {
		Debug bool `yaml:"debug"`
	} `yaml:"mode"`
	Region         string `yaml:"region"`
	DefaultTimeout string `yaml:"defaultTimeout"`
}

func optionFromInvokeConfig(cfg yamlInvokeConfig) (Option, error) {
	var timeout time.Duration
	if cfg.DefaultTimeout != "" {
		d, err := time.ParseDuration(cfg.DefaultTimeout)
		if err != nil {
			return nil, fmt.Errorf("defaultTimeout: %w", err)
		}
		timeout = d
	}

	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Mode.Debug
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.DefaultTimeout != "" {
			o.DefaultTimeout = timeout
		}
	}), nil
}

// optionFromConfigBytes parses YAML bytes and returns an Option.
// Returns an error if the YAML is invalid.
func optionFromConfigBytes(b []byte) (Option, error) {
	var cfg yamlInvokeConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	return optionFromInvokeConfig(cfg)
}

// WithConfig parses YAML bytes following invoke.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := optionFromConfigBytes(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("invoke.WithConfig: %w", err))
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
			panic(fmt.Errorf("invoke.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}

// DefaultConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default invoke config.
func DefaultConfigCandidates() []string {
	return []string{
		"invoke.yaml",
		"invoke.yml",
		filepath.FromSlash("invoke/invoke.yaml"),
		filepath.FromSlash("invoke/invoke.yml"),
	}
}

// FindDefaultConfigFile returns the first of DefaultConfigCandidates found in
// the working directory or next to the executable.
func FindDefaultConfigFile() (string, error) {
	return configfile.Find("invoke", DefaultConfigCandidates())
}

// WithDefaultConfigFile finds and loads the default invoke config file.
// It panics if the file cannot be found or read.
func WithDefaultConfigFile() Option {
	p, err := FindDefaultConfigFile()
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("invoke.WithDefaultConfigFile: %w", err))
		})
	}
	return WithConfigFile(p)
}
