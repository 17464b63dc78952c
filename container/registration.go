package container

import (
	"context"
)

// Factory produces instances to merge into the container. It receives a
// snapshot of everything resolved before it, in registration order.
// It may read or register on its container but must not call Refresh.
type Factory func(ctx context.Context, in Instances) (Instances, error)

// ValueFactory produces a single value, merged under the key it was
// registered with through Named.
type ValueFactory func(ctx context.Context, in Instances) (any, error)

// PostProcessor observes the resolved instances after every factory ran and
// may replace them. Returning nil keeps the instances it was given.
type PostProcessor func(ctx context.Context, in Instances) (Instances, error)

// Registration is one of Single, Named or Batch. Each variant is resolved into
// uniform factory entries when it is registered.
type Registration interface {
	factories(call string) ([]Factory, bool, error)
}

type single struct {
	f Factory
}

// Single registers one factory returning a map of instances.
func Single(f Factory) Registration {
	return single{f: f}
}

func (r single) factories(call string) ([]Factory, bool, error) {
	if r.f == nil {
		return nil, false, NewArgumentError(call, r.f)
	}
	return []Factory{r.f}, false, nil
}

type named struct {
	key string
	f   ValueFactory
}

// Named registers a factory whose result is merged as {key: result}.
func Named(key string, f ValueFactory) Registration {
	return named{key: key, f: f}
}

func (r named) factories(call string) ([]Factory, bool, error) {
	if r.key == "" {
		return nil, false, &ArgumentError{Call: call, Expected: "a non-empty key", Value: r.key}
	}
	if r.f == nil {
		return nil, false, NewArgumentError(call, r.f)
	}
	key, f := r.key, r.f
	return []Factory{func(ctx context.Context, in Instances) (Instances, error) {
		v, err := f(ctx, in)
		if err != nil {
			return nil, err
		}
		return Instances{key: v}, nil
	}}, false, nil
}

type batch struct {
	fs []Factory
}

// Batch registers factories that share one cache setting and may run
// concurrently. They all observe the same snapshot; their outputs are merged
// in the order given.
func Batch(fs ...Factory) Registration {
	return batch{fs: fs}
}

func (r batch) factories(call string) ([]Factory, bool, error) {
	if len(r.fs) == 0 {
		return nil, true, &ArgumentError{Call: call, Expected: "at least one function", Value: []any{}}
	}
	for _, f := range r.fs {
		if f == nil {
			return nil, true, NewArgumentError(call, f)
		}
	}
	out := make([]Factory, len(r.fs))
	copy(out, r.fs)
	return out, true, nil
}
