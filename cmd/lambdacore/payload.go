package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// buildPayload assembles the invocation payload from a base document and
// path=value assignments. Values that parse as JSON are set raw, anything
// else as a string. It returns nil when there is nothing to send.
func buildPayload(base string, sets []string) (any, error) {
	if base == "" && len(sets) == 0 {
		return nil, nil
	}

	doc := base
	if path, ok := strings.CutPrefix(base, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		doc = string(b)
	}
	if strings.TrimSpace(doc) == "" {
		doc = "{}"
	}
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}

	for _, s := range sets {
		path, value, ok := strings.Cut(s, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --set %q, expected path=value", s)
		}
		var err error
		if gjson.Valid(value) {
			doc, err = sjson.SetRaw(doc, path, value)
		} else {
			doc, err = sjson.Set(doc, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", path, err)
		}
	}
	return json.RawMessage(doc), nil
}
