package capability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aura-studio/lambdacore/internal/configfile"
	yaml "gopkg.in/yaml.v2"
)

// yamlCapabilityConfig represents the YAML configuration structure for capability module
type yamlCapabilityConfig struct {
	Mode struct {
		Debug bool `yaml:"debug"`
	} `yaml:"mode"`
	Region   string   `yaml:"region"`
	Disabled []string `yaml:"disabled"`
}

func optionFromCapabilityConfig(cfg yamlCapabilityConfig) Option {
	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Mode.Debug
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if o.Disabled == nil {
			o.Disabled = make(map[string]bool)
		}
		for _, k := range cfg.Disabled {
			if k == "" {
				continue
			}
			o.Disabled[k] = true
		}
	})
}

func optionFromConfigBytes(b []byte) (Option, error) {
	var cfg yamlCapabilityConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return optionFromCapabilityConfig(cfg), nil
}

// WithConfig parses YAML bytes following capability.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := optionFromConfigBytes(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("capability.WithConfig: %w", err))
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
			panic(fmt.Errorf("capability.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}

// DefaultConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default capability config.
func DefaultConfigCandidates() []string {
	return []string{
		"capability.yaml",
		"capability.yml",
		filepath.FromSlash("capability/capability.yaml"),
		filepath.FromSlash("capability/capability.yml"),
	}
}

// FindDefaultConfigFile returns the first of DefaultConfigCandidates found in
// the working directory or next to the executable.
func FindDefaultConfigFile() (string, error) {
	return configfile.Find("capability", DefaultConfigCandidates())
}

// WithDefaultConfigFile finds and loads the default capability config file.
// It panics if the file cannot be found or read.
func WithDefaultConfigFile() Option {
	p, err := FindDefaultConfigFile()
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("capability.WithDefaultConfigFile: %w", err))
		})
	}
	return WithConfigFile(p)
}
