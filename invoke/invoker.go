// Package invoke calls other deployed Lambda functions.
//
// FireAndForget uses the Event invocation type and only waits for the
// platform to accept the request (202). RequestResponse waits for the
// function's result (200) and decodes it. Both share one response
// classification: a FunctionError becomes a *FunctionError, an unexpected
// status code becomes a *StatusCodeError, anything else is a success.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Status codes mandated by each invocation type.
const (
	StatusEvent           int32 = 202
	StatusRequestResponse int32 = 200
)

// Invoker calls one deployed function.
type Invoker struct {
	*Options
	functionName string
}

// New creates an Invoker for functionName. Without WithLambdaClient a client
// is built from the shared AWS config.
func New(ctx context.Context, functionName string, opts ...Option) (*Invoker, error) {
	i := &Invoker{
		Options:      NewOptions(opts...),
		functionName: functionName,
	}
	if i.LambdaClient == nil {
		var loadOpts []func(*config.LoadOptions) error
		if i.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(i.Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("invoke: load aws config: %w", err)
		}
		i.LambdaClient = lambda.NewFromConfig(cfg)
	}
	return i, nil
}

// Lambda returns the underlying client.
func (i *Invoker) Lambda() LambdaClient {
	return i.LambdaClient
}

// FunctionName returns the name of the function this Invoker calls.
func (i *Invoker) FunctionName() string {
	return i.functionName
}

func (i *Invoker) log() *logrus.Entry {
	return logging.Entry(i.Logger, "invoke").WithField("function", i.functionName)
}

// FireAndForget invokes the function asynchronously. A nil payload sends no
// Payload at all; pass json.RawMessage("null") to send an explicit null.
func (i *Invoker) FireAndForget(ctx context.Context, payload any) error {
	_, err := i.call(ctx, types.InvocationTypeEvent, StatusEvent, payload)
	return err
}

// RequestResponse invokes the function synchronously and returns its result.
// A JSON payload is decoded into the generic JSON value (map[string]any,
// []any, string, float64, bool or nil); anything else is returned as a
// string. An empty payload yields nil.
func (i *Invoker) RequestResponse(ctx context.Context, payload any) (any, error) {
	out, err := i.call(ctx, types.InvocationTypeRequestResponse, StatusRequestResponse, payload)
	if err != nil {
		return nil, err
	}
	return decodePayload(out.Payload), nil
}

// RequestResponseInto invokes the function synchronously and unmarshals its
// JSON result into v.
func (i *Invoker) RequestResponseInto(ctx context.Context, payload any, v any) error {
	out, err := i.call(ctx, types.InvocationTypeRequestResponse, StatusRequestResponse, payload)
	if err != nil {
		return err
	}
	if len(out.Payload) == 0 {
		return ErrNoPayload
	}
	if err := json.Unmarshal(out.Payload, v); err != nil {
		return fmt.Errorf("invoke: decode response of %s: %w", i.functionName, err)
	}
	return nil
}

func decodePayload(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	if !gjson.ValidBytes(b) {
		return string(b)
	}
	return gjson.ParseBytes(b).Value()
}

// buildInput creates the request. Payload is only set when a payload is given.
func (i *Invoker) buildInput(invocationType types.InvocationType, payload any) (*lambda.InvokeInput, error) {
	input := &lambda.InvokeInput{
		FunctionName:   aws.String(i.functionName),
		InvocationType: invocationType,
	}
	if payload == nil {
		return input, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("invoke: marshal payload for %s: %w", i.functionName, err)
	}
	input.Payload = b
	return input, nil
}

func (i *Invoker) call(ctx context.Context, invocationType types.InvocationType, expected int32, payload any) (*lambda.InvokeOutput, error) {
	ctx, span := i.Tracer.Start(ctx, "invoke."+string(invocationType))
	defer span.End()
	span.SetAttributes(
		attribute.String("faas.invoked_name", i.functionName),
		attribute.String("faas.invocation_type", string(invocationType)),
	)

	input, err := i.buildInput(invocationType, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && i.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.DefaultTimeout)
		defer cancel()
	}

	if i.DebugMode {
		i.log().Debugf("[Invoke] Request: %s %s", invocationType, string(input.Payload))
	}

	out, err := i.LambdaClient.Invoke(ctx, input)
	if err != nil {
		err = fmt.Errorf("invoke: %s failed: %w", i.functionName, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("faas.status_code", int(out.StatusCode)))
	if i.DebugMode {
		i.log().Debugf("[Invoke] Response: %d %s", out.StatusCode, string(out.Payload))
	}

	if err := i.classify(out, expected); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func (i *Invoker) classify(out *lambda.InvokeOutput, expected int32) error {
	if aws.ToString(out.FunctionError) != "" {
		return newFunctionError(i.functionName, aws.ToString(out.FunctionError), out.Payload)
	}
	if out.StatusCode != expected {
		return &StatusCodeError{
			FunctionName: i.functionName,
			StatusCode:   out.StatusCode,
			Expected:     expected,
		}
	}
	return nil
}
