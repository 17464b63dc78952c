package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidInstances is returned when a factory yields no instance map.
var ErrInvalidInstances = errors.New("factory must return an instance map")

// ArgumentError reports a registration call that received a value it cannot use.
// It is returned at registration time, before any resolution happens.
type ArgumentError struct {
	Call     string
	Expected string
	Value    any
}

func (e *ArgumentError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "a function"
	}
	return fmt.Sprintf("%s() expects to be passed %s, you passed: %s", e.Call, expected, describe(e.Value))
}

// NewArgumentError returns an ArgumentError for a missing function argument.
func NewArgumentError(call string, value any) *ArgumentError {
	return &ArgumentError{Call: call, Value: value}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			return "null"
		}
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// ResolutionError wraps a failure raised while refreshing the container.
// Unwrap returns the original error untouched.
type ResolutionError struct {
	Stage     string // "factory" or "postProcessor"
	FactoryID uint64
	Index     int
	Cause     error
}

func (e *ResolutionError) Error() string {
	if e.Stage == stagePostProcessor {
		return fmt.Sprintf("container: post processor #%d failed: %v", e.Index, e.Cause)
	}
	return fmt.Sprintf("container: factory #%d failed: %v", e.FactoryID, e.Cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

const (
	stageFactory       = "factory"
	stagePostProcessor = "postProcessor"
)
