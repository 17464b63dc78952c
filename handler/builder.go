package handler

import (
	"errors"

	"github.com/aura-studio/lambdacore/container"
)

// ErrBuilt is returned when a Builder is modified after Build.
var ErrBuilt = errors.New("handler: builder already built")

// RegisterOption configures a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	cache bool
}

// Cache memoizes the registered factories for the lifetime of the process.
func Cache(enabled bool) RegisterOption {
	return func(o *registerOptions) {
		o.cache = enabled
	}
}

// Builder collects registrations and produces a Handler. Every registration
// method validates its argument immediately; the first failure is kept and
// returned by Build, so no invocation can run with a broken setup.
type Builder struct {
	*Options
	app              App
	container        *container.Container
	resultProcessors []ResultProcessor
	err              error
	built            bool
}

// New starts building a handler around app.
func New(app App, opts ...Option) *Builder {
	options := NewOptions(opts...)
	b := &Builder{
		Options: options,
		app:     app,
		container: container.New(
			container.WithDebugMode(options.DebugMode),
			container.WithLogger(options.Logger),
			container.WithTracer(options.Tracer),
		),
	}
	if app == nil {
		b.err = container.NewArgumentError("lambdacore", app)
	}
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) ready() bool {
	if b.built {
		b.fail(ErrBuilt)
		return false
	}
	return true
}

// Register adds a factory registration: container.Single, container.Named or
// container.Batch.
func (b *Builder) Register(r container.Registration, opts ...RegisterOption) *Builder {
	if !b.ready() {
		return b
	}
	ro := &registerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(ro)
		}
	}
	if err := b.container.Register(r, ro.cache); err != nil {
		return b.fail(err)
	}
	return b
}

// RegisterFunc is shorthand for Register(container.Named(key, f), opts...).
func (b *Builder) RegisterFunc(key string, f container.ValueFactory, opts ...RegisterOption) *Builder {
	return b.Register(container.Named(key, f), opts...)
}

// PostProcessor adds a post processor applied to the resolved instances.
func (b *Builder) PostProcessor(p container.PostProcessor) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.container.RegisterPostProcessor(p); err != nil {
		return b.fail(err)
	}
	return b
}

// ResultProcessor adds a processor applied to the app's result before the
// completion callback fires.
func (b *Builder) ResultProcessor(p ResultProcessor) *Builder {
	if !b.ready() {
		return b
	}
	if p == nil {
		return b.fail(container.NewArgumentError("resultProcessor", p))
	}
	b.resultProcessors = append(b.resultProcessors, p)
	return b
}

// Seed adds capability handles, usually capability.Registry.Instances().
func (b *Builder) Seed(in container.Instances) *Builder {
	if !b.ready() {
		return b
	}
	WithBuiltIns(in).Apply(b.Options)
	return b
}

// Err returns the first registration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the handler, or the first registration error.
func (b *Builder) Build() (*Handler, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true

	b.container.RegisterBuiltInInstances(b.Options.BuiltIns)

	processors := make([]ResultProcessor, len(b.resultProcessors))
	copy(processors, b.resultProcessors)

	h := &Handler{
		Options:          b.Options,
		app:              b.app,
		container:        b.container,
		resultProcessors: processors,
	}
	h.running.Store(1)
	return h, nil
}
