package classify

import (
	"testing"
)

var logRules = []Rule{{Prefix: "ERROR:", Destination: "errors"}}

func TestPrefix(t *testing.T) {
	classify := Prefix(logRules, "logs")

	tests := []struct {
		line string
		want string
	}{
		{"ERROR: Two", "errors"},
		{"One", "logs"},
		{" ERROR: indented", "logs"},
	}

	for _, tt := range tests {
		r, err := classify(tt.line)
		if err != nil {
			t.Fatalf("classify(%q) failed: %v", tt.line, err)
		}
		routes := r.Routes()
		if len(routes) != 1 || routes[0].Key != tt.want || routes[0].Payload != tt.line {
			t.Errorf("classify(%q) = %+v, want {%s %s}", tt.line, routes, tt.want, tt.line)
		}
	}
}

func TestPrefix_FirstRuleWins(t *testing.T) {
	classify := Prefix([]Rule{
		{Prefix: "ERROR: db", Destination: "db"},
		{Prefix: "ERROR:", Destination: "errors"},
	}, "")

	r, _ := classify("ERROR: db timeout")
	if r.Routes()[0].Key != "db" {
		t.Errorf("destination = %q, want db", r.Routes()[0].Key)
	}
}

func TestPrefix_NoFallbackLeavesUnrouted(t *testing.T) {
	classify := Prefix(logRules, "")

	r, err := classify("One")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("routes = %+v, want none", r.Routes())
	}
}

func TestChunk(t *testing.T) {
	classify := Chunk(logRules, "logs")

	chunk := "One\nERROR: Two\nThree\nFour\nERROR: Five"
	r, err := classify(chunk)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	routes := r.Routes()
	if len(routes) != 2 {
		t.Fatalf("routes = %+v, want 2", routes)
	}
	if routes[0].Key != "logs" || routes[0].Payload != "One\nThree\nFour" {
		t.Errorf("routes[0] = %+v, want logs One\\nThree\\nFour", routes[0])
	}
	if routes[1].Key != "errors" || routes[1].Payload != "ERROR: Two\nERROR: Five" {
		t.Errorf("routes[1] = %+v, want errors ERROR: Two\\nERROR: Five", routes[1])
	}
}

func TestChunk_SkipsEmptyLines(t *testing.T) {
	r, _ := Chunk(logRules, "logs")("\n\nOne\n")

	routes := r.Routes()
	if len(routes) != 1 || routes[0].Payload != "One" {
		t.Errorf("routes = %+v, want [{logs One}]", routes)
	}
}
