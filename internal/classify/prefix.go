package classify

import (
	"strings"

	"github.com/rickgao/forkstream/internal/fork"
)

// Rule routes records starting with Prefix to Destination.
type Rule struct {
	Prefix      string
	Destination string
}

func match(rules []Rule, line string) (string, bool) {
	for _, r := range rules {
		if strings.HasPrefix(line, r.Prefix) {
			return r.Destination, true
		}
	}
	return "", false
}

// Prefix routes each line to the destination of the first matching rule.
// Lines matching no rule go to fallback, or nowhere when fallback is empty.
func Prefix(rules []Rule, fallback string) fork.ClassifyFunc[string, string, string] {
	return func(line string) (fork.Result[string, string], error) {
		dest, ok := match(rules, line)
		if !ok {
			if fallback == "" {
				return fork.Result[string, string]{}, nil
			}
			dest = fallback
		}
		return fork.Single(dest, line), nil
	}
}

// Chunk splits a multi-line chunk and routes each line like Prefix. Lines for
// the same destination are joined with "\n" into one payload, so one chunk
// yields at most one payload per destination. Destinations are emitted in
// order of first appearance within the chunk.
func Chunk(rules []Rule, fallback string) fork.ClassifyFunc[string, string, string] {
	return func(chunk string) (fork.Result[string, string], error) {
		var order []string
		grouped := make(map[string][]string)

		for _, line := range strings.Split(chunk, "\n") {
			if line == "" {
				continue
			}
			dest, ok := match(rules, line)
			if !ok {
				if fallback == "" {
					continue
				}
				dest = fallback
			}
			if _, seen := grouped[dest]; !seen {
				order = append(order, dest)
			}
			grouped[dest] = append(grouped[dest], line)
		}

		routes := make([]fork.Route[string, string], 0, len(order))
		for _, dest := range order {
			routes = append(routes, fork.Route[string, string]{
				Key:     dest,
				Payload: strings.Join(grouped[dest], "\n"),
			})
		}
		return fork.Routes(routes...), nil
	}
}
