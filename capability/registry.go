// Package capability builds the AWS service clients that every invocation can
// use without registering a factory. The clients are constructed once per
// container and treated as immutable afterwards.
package capability

import (
	"context"
	"fmt"
	"sort"

	"github.com/aura-studio/lambdacore/container"
	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Capability keys.
const (
	Lambda         = "lambda"
	S3             = "s3"
	SSM            = "ssm"
	SNS            = "sns"
	SecretsManager = "secretsManager"
	SQS            = "sqs"
)

type builder func(cfg aws.Config) any

var builders = map[string]builder{
	Lambda:         func(cfg aws.Config) any { return lambda.NewFromConfig(cfg) },
	S3:             func(cfg aws.Config) any { return s3.NewFromConfig(cfg) },
	SSM:            func(cfg aws.Config) any { return ssm.NewFromConfig(cfg) },
	SNS:            func(cfg aws.Config) any { return sns.NewFromConfig(cfg) },
	SecretsManager: func(cfg aws.Config) any { return secretsmanager.NewFromConfig(cfg) },
	SQS:            func(cfg aws.Config) any { return sqs.NewFromConfig(cfg) },
}

// Keys returns the built-in capability keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(builders))
	for k := range builders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry holds the capability handles of one container.
type Registry struct {
	*Options
	handles container.Instances
}

// NewRegistry builds every enabled capability. The shared AWS config is only
// loaded when at least one client has to be constructed.
func NewRegistry(ctx context.Context, opts ...Option) (*Registry, error) {
	r := &Registry{
		Options: NewOptions(opts...),
		handles: container.Instances{},
	}

	var pending []string
	for _, k := range Keys() {
		if r.Disabled[k] {
			continue
		}
		if _, ok := r.Overrides[k]; ok {
			continue
		}
		pending = append(pending, k)
	}

	if len(pending) > 0 {
		cfg, err := r.loadConfig(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range pending {
			r.handles[k] = builders[k](cfg)
		}
	}

	for k, v := range r.Overrides {
		if r.Disabled[k] {
			continue
		}
		r.handles[k] = v
	}

	if r.DebugMode {
		logging.Entry(r.Logger, "capability").Debugf("capabilities ready: %v", r.Keys())
	}
	return r, nil
}

func (r *Registry) loadConfig(ctx context.Context) (aws.Config, error) {
	if r.AWSConfig != nil {
		cfg := r.AWSConfig.Copy()
		if r.Region != "" {
			cfg.Region = r.Region
		}
		return cfg, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if r.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(r.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("capability: load aws config: %w", err)
	}
	return cfg, nil
}

// Get returns the handle registered under key, or nil.
func (r *Registry) Get(key string) any {
	return r.handles[key]
}

// Keys returns the registered capability keys in sorted order.
func (r *Registry) Keys() []string {
	keys := r.handles.Keys()
	sort.Strings(keys)
	return keys
}

// Instances returns a copy of the handles, ready for
// container.RegisterBuiltInInstances.
func (r *Registry) Instances() container.Instances {
	return r.handles.Clone()
}

// LambdaClient returns the built-in Lambda client when it was constructed by
// the registry.
func (r *Registry) LambdaClient() (*lambda.Client, bool) {
	c, ok := r.handles[Lambda].(*lambda.Client)
	return c, ok
}
