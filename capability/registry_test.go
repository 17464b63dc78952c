package capability_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aura-studio/lambdacore/capability"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func staticConfig() aws.Config {
	return aws.Config{
		Region:      "eu-west-1",
		Credentials: aws.AnonymousCredentials{},
	}
}

func TestRegistryBuildsBuiltIns(t *testing.T) {
	r, err := capability.NewRegistry(context.Background(),
		capability.WithAWSConfig(staticConfig()),
		capability.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	want := map[string]reflect.Type{
		capability.Lambda:         reflect.TypeOf(&lambda.Client{}),
		capability.S3:             reflect.TypeOf(&s3.Client{}),
		capability.SSM:            reflect.TypeOf(&ssm.Client{}),
		capability.SNS:            reflect.TypeOf(&sns.Client{}),
		capability.SecretsManager: reflect.TypeOf(&secretsmanager.Client{}),
		capability.SQS:            reflect.TypeOf(&sqs.Client{}),
	}
	if got := r.Keys(); len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %d keys", got, len(want))
	}
	for key, typ := range want {
		if got := reflect.TypeOf(r.Get(key)); got != typ {
			t.Errorf("%s: got %v, want %v", key, got, typ)
		}
	}

	if _, ok := r.LambdaClient(); !ok {
		t.Errorf("LambdaClient() should return the built-in client")
	}
}

func TestRegistryInstancesIsACopy(t *testing.T) {
	r, err := capability.NewRegistry(context.Background(),
		capability.WithAWSConfig(staticConfig()),
		capability.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	in := r.Instances()
	delete(in, capability.S3)
	if r.Get(capability.S3) == nil {
		t.Errorf("mutating Instances() must not affect the registry")
	}
}

func TestRegistryOverridesSkipConfigLoading(t *testing.T) {
	opts := []capability.Option{capability.WithLogger(quietLogger())}
	for _, k := range capability.Keys() {
		opts = append(opts, capability.WithInstance(k, "fake-"+k))
	}
	opts = append(opts, capability.WithInstance("custom", 42))

	r, err := capability.NewRegistry(context.Background(), opts...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Get(capability.SNS) != "fake-sns" {
		t.Errorf("sns = %v, want fake-sns", r.Get(capability.SNS))
	}
	if r.Get("custom") != 42 {
		t.Errorf("custom = %v, want 42", r.Get("custom"))
	}
	if _, ok := r.LambdaClient(); ok {
		t.Errorf("LambdaClient() should report false for a fake handle")
	}
}

func TestRegistryDisabled(t *testing.T) {
	r, err := capability.NewRegistry(context.Background(),
		capability.WithAWSConfig(staticConfig()),
		capability.WithDisabled(capability.SQS, capability.SSM),
		capability.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Get(capability.SQS) != nil || r.Get(capability.SSM) != nil {
		t.Errorf("disabled capabilities must not be built")
	}
	if r.Get(capability.Lambda) == nil {
		t.Errorf("lambda should still be built")
	}
}

func TestRegistryRegionOverride(t *testing.T) {
	r, err := capability.NewRegistry(context.Background(),
		capability.WithAWSConfig(staticConfig()),
		capability.WithRegion("ap-southeast-2"),
		capability.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	client, ok := r.LambdaClient()
	if !ok {
		t.Fatal("missing lambda client")
	}
	if got := client.Options().Region; got != "ap-southeast-2" {
		t.Errorf("region = %q, want ap-southeast-2", got)
	}
}

func TestCapabilityConfig(t *testing.T) {
	yml := []byte(`
mode:
  debug: true
region: us-west-2
disabled:
  - sqs
  - ""
`)
	opts := capability.NewOptions(capability.WithConfig(yml), capability.WithLogger(quietLogger()))
	if !opts.DebugMode {
		t.Errorf("DebugMode should be true")
	}
	if opts.Region != "us-west-2" {
		t.Errorf("Region = %q", opts.Region)
	}
	if !opts.Disabled[capability.SQS] || len(opts.Disabled) != 1 {
		t.Errorf("Disabled = %v", opts.Disabled)
	}
}

func TestCapabilityConfigInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for invalid YAML")
		}
	}()
	capability.NewOptions(capability.WithConfig([]byte("region: [unclosed")))
}

func TestCapabilityConfigFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "capability.yml")
	if err := os.WriteFile(p, []byte("region: sa-east-1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	opts := capability.NewOptions(capability.WithConfigFile(p), capability.WithLogger(quietLogger()))
	if opts.Region != "sa-east-1" {
		t.Errorf("Region = %q", opts.Region)
	}
}

func TestNewOptionsDoesNotShareDefaults(t *testing.T) {
	a := capability.NewOptions(capability.WithDisabled(capability.S3), capability.WithLogger(quietLogger()))
	b := capability.NewOptions(capability.WithLogger(quietLogger()))
	if !a.Disabled[capability.S3] {
		t.Fatalf("a should disable s3")
	}
	if b.Disabled[capability.S3] {
		t.Errorf("defaults leaked between NewOptions calls")
	}
}
