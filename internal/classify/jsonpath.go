package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/rickgao/forkstream/internal/fork"
)

// ErrNoDestination is returned when a record yields no destination and no fallback is set.
var ErrNoDestination = errors.New("no destination found")

// JSONPath routes JSON records by the value at expr, e.g. "$.level".
// Records that are not JSON, or where expr finds nothing, go to fallback;
// with an empty fallback they are reported as classify errors.
func JSONPath(expr, fallback string) (fork.ClassifyFunc[string, string, string], error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty jsonpath expression")
	}

	eval, err := jsonpath.New(expr)
	if err != nil {
		return nil, fmt.Errorf("compile jsonpath %q: %w", expr, err)
	}

	orFallback := func(record string, cause error) (fork.Result[string, string], error) {
		if fallback != "" {
			return fork.Single(fallback, record), nil
		}
		return fork.Result[string, string]{}, cause
	}

	return func(record string) (fork.Result[string, string], error) {
		var doc any
		if err := json.Unmarshal([]byte(record), &doc); err != nil {
			return orFallback(record, fmt.Errorf("parse record: %w", err))
		}

		val, err := eval(context.Background(), doc)
		if err != nil {
			return orFallback(record, fmt.Errorf("jsonpath %s: %w", expr, err))
		}

		dest, ok := toDestination(val)
		if !ok {
			return orFallback(record, fmt.Errorf("jsonpath %s: %w", expr, ErrNoDestination))
		}
		return fork.Single(dest, record), nil
	}, nil
}

// toDestination converts a scalar jsonpath result to a destination name.
func toDestination(v any) (string, bool) {
	// Wildcard paths return a slice; a single element is unwrapped.
	if arr, ok := v.([]any); ok {
		if len(arr) != 1 {
			return "", false
		}
		v = arr[0]
	}

	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64, bool:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}
