package container

import "fmt"

// Instances maps instance keys to resolved values: capability handles,
// request-scoped values and factory outputs.
type Instances map[string]any

// Get returns the value stored under key, or nil.
func (in Instances) Get(key string) any {
	return in[key]
}

// Has reports whether key is present.
func (in Instances) Has(key string) bool {
	_, ok := in[key]
	return ok
}

// Clone returns a shallow copy. The values themselves are shared.
func (in Instances) Clone() Instances {
	out := make(Instances, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into in, overwriting existing keys.
func (in Instances) Merge(other Instances) {
	for k, v := range other {
		in[k] = v
	}
}

// Keys returns the keys in no particular order.
func (in Instances) Keys() []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	return keys
}

// Lookup returns the value stored under key asserted to T.
func Lookup[T any](in Instances, key string) (T, bool) {
	v, ok := in[key]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// MustLookup is like Lookup but panics when the key is missing or holds a
// value of another type.
func MustLookup[T any](in Instances, key string) T {
	v, ok := Lookup[T](in, key)
	if !ok {
		var zero T
		panic(fmt.Errorf("container: instance %q is missing or not a %T (got %T)", key, zero, in[key]))
	}
	return v
}
