package invoke

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoPayload is returned by RequestResponseInto when the function returned nothing.
var ErrNoPayload = errors.New("invoke: response has no payload")

// Function error kinds reported in the FunctionError field of an invoke response.
const (
	Handled   = "Handled"
	Unhandled = "Unhandled"
)

// FunctionError is a failure reported by the invoked function itself.
//
// When the payload carries the runtime's error descriptor
// ({"errorMessage", "errorType", "stackTrace"}) it is unwrapped: Name is the
// remote errorType and Message the remote errorMessage. Otherwise Name is
// "FunctionError" and Message reports the kind and the raw payload. Handled and
// Unhandled errors follow the same rule.
type FunctionError struct {
	Kind         string
	FunctionName string
	Name         string
	Message      string
	StackTrace   []string
	Payload      []byte

	unwrapped bool
}

func (e *FunctionError) Error() string {
	return e.Message
}

// Unwrapped reports whether the remote error descriptor was decoded.
func (e *FunctionError) Unwrapped() bool {
	return e.unwrapped
}

// IsHandled reports whether the function caught the error itself.
func (e *FunctionError) IsHandled() bool {
	return e.Kind == Handled
}

func newFunctionError(functionName, kind string, payload []byte) *FunctionError {
	e := &FunctionError{
		Kind:         kind,
		FunctionName: functionName,
		Payload:      payload,
	}

	if gjson.ValidBytes(payload) {
		doc := gjson.ParseBytes(payload)
		if doc.IsObject() && doc.Get("errorMessage").Exists() {
			e.Name = doc.Get("errorType").String()
			if e.Name == "" {
				e.Name = "Error"
			}
			e.Message = doc.Get("errorMessage").String()
			for _, frame := range doc.Get("stackTrace").Array() {
				e.StackTrace = append(e.StackTrace, formatFrame(frame))
			}
			e.unwrapped = true
			return e
		}
	}

	e.Name = "FunctionError"
	e.Message = fmt.Sprintf("%s error returned by %s: %s", kind, functionName, string(payload))
	return e
}

// formatFrame renders a stack frame. Node runtimes send strings; the Go
// runtime sends {"path", "line", "label"} objects.
func formatFrame(frame gjson.Result) string {
	if !frame.IsObject() {
		return frame.String()
	}
	var b strings.Builder
	if label := frame.Get("label").String(); label != "" {
		b.WriteString(label)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "(%s:%d)", frame.Get("path").String(), frame.Get("line").Int())
	return b.String()
}

// StatusCodeError reports a status code that does not match the invocation type.
type StatusCodeError struct {
	FunctionName string
	StatusCode   int32
	Expected     int32
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("Status code returned was: %d", e.StatusCode)
}
