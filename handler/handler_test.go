package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aura-studio/lambdacore/container"
	"github.com/aura-studio/lambdacore/handler"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type outcome struct {
	err    error
	result any
	calls  int
}

func (o *outcome) callback() handler.Callback {
	return func(err error, result any) {
		o.calls++
		o.err = err
		o.result = result
	}
}

func echoApp(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
	return in, nil
}

func TestNamedFactoryVisibleOnEveryInvocation(t *testing.T) {
	var runs atomic.Int32
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		return in.Get("db"), nil
	}, handler.WithLogger(quietLogger())).
		RegisterFunc("db", func(ctx context.Context, in container.Instances) (any, error) {
			return fmt.Sprintf("conn-%d", runs.Add(1)), nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i, want := range []string{"conn-1", "conn-2", "conn-3"} {
		var o outcome
		h.Invoke(context.Background(), json.RawMessage(`{}`), o.callback())
		if o.err != nil {
			t.Fatalf("invocation %d: %v", i, o.err)
		}
		if o.result != want {
			t.Errorf("invocation %d: result = %v, want %s", i, o.result, want)
		}
	}
}

func TestCacheableFactoryRunsOnceAcrossInvocations(t *testing.T) {
	var runs atomic.Int32
	h, err := handler.New(echoApp, handler.WithLogger(quietLogger())).
		RegisterFunc("client", func(ctx context.Context, in container.Instances) (any, error) {
			return runs.Add(1), nil
		}, handler.Cache(true)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := h.Handle(context.Background(), json.RawMessage(`{}`)); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if runs.Load() != 1 {
		t.Errorf("cacheable factory ran %d times, want 1", runs.Load())
	}
}

func TestEventAndContextAreSeeded(t *testing.T) {
	h, err := handler.New(echoApp, handler.WithLogger(quietLogger())).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	lc := &lambdacontext.LambdaContext{AwsRequestID: "req-1"}
	ctx := lambdacontext.NewContext(context.Background(), lc)
	result, err := h.Handle(ctx, json.RawMessage(`{"id":7}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	in := result.(container.Instances)

	event, ok := container.Lookup[json.RawMessage](in, handler.EventKey)
	if !ok || string(event) != `{"id":7}` {
		t.Errorf("event = %s, want {\"id\":7}", event)
	}
	got, ok := container.Lookup[*lambdacontext.LambdaContext](in, handler.ContextKey)
	if !ok || got.AwsRequestID != "req-1" {
		t.Errorf("context = %+v, want request id req-1", got)
	}
}

func TestContextIsSynthesizedOutsideLambda(t *testing.T) {
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		lc, ok := lambdacontext.FromContext(ctx)
		if !ok {
			return nil, errors.New("no lambda context on ctx")
		}
		seeded := container.MustLookup[*lambdacontext.LambdaContext](in, handler.ContextKey)
		if seeded != lc {
			return nil, errors.New("seeded context differs from ctx")
		}
		return lc.AwsRequestID, nil
	}, handler.WithLogger(quietLogger())).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	result, err := h.Handle(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if id, _ := result.(string); id == "" {
		t.Error("expected a generated request id")
	}
}

func TestFactoryFailureSkipsApp(t *testing.T) {
	boom := errors.New("boom")
	var appCalls int
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		appCalls++
		return "ok", nil
	}, handler.WithLogger(quietLogger())).
		RegisterFunc("db", func(ctx context.Context, in container.Instances) (any, error) {
			return nil, boom
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var o outcome
	h.Invoke(context.Background(), json.RawMessage(`{}`), o.callback())
	if o.calls != 1 {
		t.Fatalf("callback called %d times, want 1", o.calls)
	}
	if !errors.Is(o.err, boom) {
		t.Errorf("err = %v, want boom", o.err)
	}
	if o.result != nil {
		t.Errorf("result = %v, want nil", o.result)
	}
	if appCalls != 0 {
		t.Errorf("app called %d times, want 0", appCalls)
	}
}

func TestAppErrorReachesCallback(t *testing.T) {
	boom := errors.New("app failed")
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		return nil, boom
	}, handler.WithLogger(quietLogger())).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := h.Handle(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want app failed", err)
	}
}

func TestAppPanicIsRecovered(t *testing.T) {
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		panic("kaboom")
	}, handler.WithLogger(quietLogger())).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var o outcome
	h.Invoke(context.Background(), nil, o.callback())
	if o.calls != 1 {
		t.Fatalf("callback called %d times, want 1", o.calls)
	}
	if o.err == nil || !strings.Contains(o.err.Error(), "kaboom") {
		t.Errorf("err = %v, want panic message", o.err)
	}
}

func TestResultProcessorsRunInOrder(t *testing.T) {
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		return "a", nil
	}, handler.WithLogger(quietLogger())).
		ResultProcessor(func(ctx context.Context, result any) (any, error) {
			return result.(string) + "b", nil
		}).
		ResultProcessor(func(ctx context.Context, result any) (any, error) {
			return result.(string) + "c", nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	result, err := h.Handle(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result != "abc" {
		t.Errorf("result = %v, want abc", result)
	}
}

func TestPostProcessorSeesResolvedInstances(t *testing.T) {
	h, err := handler.New(echoApp, handler.WithLogger(quietLogger())).
		RegisterFunc("n", func(ctx context.Context, in container.Instances) (any, error) {
			return 1, nil
		}).
		PostProcessor(func(ctx context.Context, in container.Instances) (container.Instances, error) {
			out := in.Clone()
			out["doubled"] = in.Get("n").(int) * 2
			return out, nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	result, err := h.Handle(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := result.(container.Instances).Get("doubled"); got != 2 {
		t.Errorf("doubled = %v, want 2", got)
	}
}

func TestBuiltInsAreVisibleAndShadowable(t *testing.T) {
	h, err := handler.New(echoApp,
		handler.WithLogger(quietLogger()),
		handler.WithBuiltIns(container.Instances{"s3": "client"}),
	).
		Seed(container.Instances{"region": "us-east-1", "bucket": "assets"}).
		RegisterFunc("region", func(ctx context.Context, in container.Instances) (any, error) {
			return "eu-west-1", nil
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	result, err := h.Handle(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	in := result.(container.Instances)
	if in.Get("s3") != "client" {
		t.Errorf("s3 = %v, want client", in.Get("s3"))
	}
	if in.Get("bucket") != "assets" {
		t.Errorf("bucket = %v, want assets", in.Get("bucket"))
	}
	if in.Get("region") != "eu-west-1" {
		t.Errorf("region = %v, want eu-west-1", in.Get("region"))
	}
}

func TestBuilderArgumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *handler.Builder
		want  string
	}{
		{
			name:  "nil app",
			build: func() *handler.Builder { return handler.New(nil) },
			want:  "lambdacore() expects to be passed a function, you passed: null",
		},
		{
			name:  "nil registration",
			build: func() *handler.Builder { return handler.New(echoApp).Register(nil) },
			want:  "register() expects to be passed a function, you passed: null",
		},
		{
			name:  "nil factory",
			build: func() *handler.Builder { return handler.New(echoApp).Register(container.Single(nil)) },
			want:  "register() expects to be passed a function, you passed: null",
		},
		{
			name:  "nil post processor",
			build: func() *handler.Builder { return handler.New(echoApp).PostProcessor(nil) },
			want:  "postProcessor() expects to be passed a function, you passed: null",
		},
		{
			name:  "nil result processor",
			build: func() *handler.Builder { return handler.New(echoApp).ResultProcessor(nil) },
			want:  "resultProcessor() expects to be passed a function, you passed: null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build()
			h, err := b.Build()
			if h != nil {
				t.Error("expected no handler")
			}
			var argErr *container.ArgumentError
			if !errors.As(err, &argErr) {
				t.Fatalf("err = %v, want *container.ArgumentError", err)
			}
			if err.Error() != tt.want {
				t.Errorf("err = %q, want %q", err.Error(), tt.want)
			}
			if b.Err() != err {
				t.Errorf("Err() = %v, want %v", b.Err(), err)
			}
		})
	}
}

func TestBuilderKeepsFirstError(t *testing.T) {
	b := handler.New(echoApp).PostProcessor(nil).ResultProcessor(nil)
	if _, err := b.Build(); err == nil || !strings.HasPrefix(err.Error(), "postProcessor()") {
		t.Errorf("err = %v, want the post processor error", err)
	}
}

func TestBuilderRejectsUseAfterBuild(t *testing.T) {
	b := handler.New(echoApp, handler.WithLogger(quietLogger()))
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	b.ResultProcessor(func(ctx context.Context, result any) (any, error) { return result, nil })
	if !errors.Is(b.Err(), handler.ErrBuilt) {
		t.Errorf("Err() = %v, want ErrBuilt", b.Err())
	}
	if _, err := b.Build(); !errors.Is(err, handler.ErrBuilt) {
		t.Errorf("second Build err = %v, want ErrBuilt", err)
	}
}

func TestStoppedHandlerRejectsInvocations(t *testing.T) {
	var appCalls int
	h, err := handler.New(func(ctx context.Context, event json.RawMessage, in container.Instances) (any, error) {
		appCalls++
		return nil, nil
	}, handler.WithLogger(quietLogger())).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !h.IsRunning() {
		t.Fatal("built handler should be running")
	}

	h.Stop()
	if _, err := h.Handle(context.Background(), nil); !errors.Is(err, handler.ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}

	h.Start()
	if _, err := h.Handle(context.Background(), nil); err != nil {
		t.Errorf("Handle after Start: %v", err)
	}
	if appCalls != 1 {
		t.Errorf("app called %d times, want 1", appCalls)
	}
}

func TestNilCallbackIsAllowed(t *testing.T) {
	h, err := handler.New(echoApp, handler.WithLogger(quietLogger())).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h.Invoke(context.Background(), nil, nil)
}

func TestWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handler.yml")
	if err := os.WriteFile(path, []byte("mode:\n  debug: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	options := handler.NewOptions(handler.WithConfigFile(path), handler.WithLogger(quietLogger()))
	if !options.DebugMode {
		t.Error("expected debug mode from config file")
	}
}

func TestWithConfigPanicsOnInvalidYAML(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid yaml")
		}
	}()
	handler.NewOptions(handler.WithConfig([]byte("mode: [")))
}
