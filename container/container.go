// Package container implements the invocation-scoped dependency context.
//
// A Container is created once per process and reused across warm invocations.
// Built-in capability handles are seeded once, request-scoped values are
// overwritten at the start of every invocation, and registered factories are
// resolved by Refresh in registration order. Factories registered as cacheable
// run at most once per process; every other factory runs once per Refresh.
package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

type factoryEntry struct {
	id uint64
	fn Factory
}

// group is one registration: a single factory or a batch sharing a cache setting.
type group struct {
	members   []factoryEntry
	cacheable bool
	batch     bool
}

// Container holds instances, factories, the factory cache and post processors.
type Container struct {
	*Options

	// refreshMu serializes Refresh. mu guards the fields below and is never
	// held while user code runs.
	refreshMu      sync.Mutex
	mu             sync.Mutex
	builtIns       Instances
	instances      Instances
	resolved       Instances
	groups         []group
	cache          map[uint64]Instances
	postProcessors []PostProcessor
	nextID         uint64
}

// New creates an empty container.
func New(opts ...Option) *Container {
	return &Container{
		Options:   NewOptions(opts...),
		builtIns:  Instances{},
		instances: Instances{},
		cache:     map[uint64]Instances{},
	}
}

func (c *Container) log() *logrus.Entry {
	return logging.Entry(c.Logger, "container")
}

// RegisterBuiltInInstances seeds capability handles. Built-ins are never
// re-resolved; request-scoped values and factory outputs may shadow them.
func (c *Container) RegisterBuiltInInstances(in Instances) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builtIns.Merge(in)
}

// RegisterInstances merges request-scoped values, overwriting existing keys.
func (c *Container) RegisterInstances(in Instances) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances.Merge(in)
}

// RegisterFactory appends a single factory.
func (c *Container) RegisterFactory(f Factory, cacheable bool) error {
	return c.register("registerFactory", Single(f), cacheable)
}

// RegisterFactories appends a batch of factories sharing one cache setting.
func (c *Container) RegisterFactories(fs []Factory, cacheable bool) error {
	return c.register("registerFactories", Batch(fs...), cacheable)
}

// Register appends any registration variant.
func (c *Container) Register(r Registration, cacheable bool) error {
	return c.register("register", r, cacheable)
}

func (c *Container) register(call string, r Registration, cacheable bool) error {
	if r == nil {
		return NewArgumentError(call, nil)
	}
	fs, isBatch, err := r.factories(call)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	g := group{cacheable: cacheable, batch: isBatch}
	for _, f := range fs {
		c.nextID++
		g.members = append(g.members, factoryEntry{id: c.nextID, fn: f})
	}
	c.groups = append(c.groups, g)
	return nil
}

// RegisterPostProcessor appends a post processor.
func (c *Container) RegisterPostProcessor(p PostProcessor) error {
	if p == nil {
		return NewArgumentError("postProcessor", p)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postProcessors = append(c.postProcessors, p)
	return nil
}

// Instances returns a copy of the instances produced by the last successful
// Refresh.
func (c *Container) Instances() Instances {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved == nil {
		return c.base()
	}
	return c.resolved.Clone()
}

// Cached reports how many factory results are memoized.
func (c *Container) Cached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *Container) base() Instances {
	out := c.builtIns.Clone()
	out.Merge(c.instances)
	return out
}

// Refresh resolves every registered factory and applies the post processors.
// The returned instances are complete: no factory is left pending. On failure
// nothing of the current pass is exposed, although cacheable factories that
// already succeeded stay memoized.
//
// The pass works on the registrations present when it starts. Factories and
// post processors may use the container, except for calling Refresh itself.
func (c *Container) Refresh(ctx context.Context) (Instances, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ctx, span := c.Tracer.Start(ctx, "container.Refresh")
	defer span.End()

	c.mu.Lock()
	working := c.base()
	groups := make([]group, len(c.groups))
	copy(groups, c.groups)
	postProcessors := make([]PostProcessor, len(c.postProcessors))
	copy(postProcessors, c.postProcessors)
	c.mu.Unlock()

	for _, g := range groups {
		results, err := c.resolveGroup(ctx, g, working)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		for _, out := range results {
			working.Merge(out)
		}
	}

	for i, p := range postProcessors {
		next, err := c.postProcess(ctx, p, working.Clone())
		if err != nil {
			err = &ResolutionError{Stage: stagePostProcessor, Index: i, Cause: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if next != nil {
			working = next
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	span.SetAttributes(
		attribute.Int("container.factories", int(c.nextID)),
		attribute.Int("container.cached", len(c.cache)),
	)
	c.resolved = working
	return working.Clone(), nil
}

func (c *Container) resolveGroup(ctx context.Context, g group, snapshot Instances) ([]Instances, error) {
	results := make([]Instances, len(g.members))

	if !g.batch || len(g.members) == 1 {
		for j, m := range g.members {
			out, err := c.resolveMember(ctx, m, g.cacheable, snapshot)
			if err != nil {
				return nil, err
			}
			results[j] = out
			snapshot = snapshot.Clone()
			snapshot.Merge(out)
		}
		return results, nil
	}

	fresh := make([]bool, len(g.members))
	eg, egctx := errgroup.WithContext(ctx)
	for j, m := range g.members {
		if g.cacheable {
			if out, ok := c.cached(m.id); ok {
				c.debugf("factory #%d served from cache", m.id)
				results[j] = out
				continue
			}
		}
		view := snapshot.Clone()
		fresh[j] = true
		eg.Go(func() error {
			out, err := c.call(egctx, m, view)
			if err != nil {
				return err
			}
			results[j] = out
			return nil
		})
	}
	err := eg.Wait()

	// Members that succeeded stay memoized even when a sibling failed.
	if g.cacheable {
		for j, m := range g.members {
			if fresh[j] && results[j] != nil {
				c.store(m.id, results[j])
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Container) resolveMember(ctx context.Context, m factoryEntry, cacheable bool, snapshot Instances) (Instances, error) {
	if cacheable {
		if out, ok := c.cached(m.id); ok {
			c.debugf("factory #%d served from cache", m.id)
			return out, nil
		}
	}
	out, err := c.call(ctx, m, snapshot.Clone())
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.store(m.id, out)
	}
	return out, nil
}

func (c *Container) cached(id uint64) (Instances, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.cache[id]
	return out, ok
}

func (c *Container) store(id uint64, out Instances) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[id] = out
}

func (c *Container) call(ctx context.Context, m factoryEntry, view Instances) (out Instances, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ResolutionError{Stage: stageFactory, FactoryID: m.id, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = m.fn(ctx, view)
	if err != nil {
		c.debugf("factory #%d failed: %v", m.id, err)
		return nil, &ResolutionError{Stage: stageFactory, FactoryID: m.id, Cause: err}
	}
	if out == nil {
		return nil, &ResolutionError{Stage: stageFactory, FactoryID: m.id, Cause: ErrInvalidInstances}
	}
	c.debugf("factory #%d resolved %v", m.id, out.Keys())
	return out, nil
}

func (c *Container) postProcess(ctx context.Context, p PostProcessor, in Instances) (out Instances, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p(ctx, in)
}

func (c *Container) debugf(format string, args ...any) {
	if c.DebugMode {
		c.log().Debugf(format, args...)
	}
}
