package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rickgao/forkstream/internal/fork"
)

func sampleStats() fork.Stats {
	return fork.Stats{
		ID:                 "id-1",
		Name:               "logs",
		RecordsReceived:    10,
		RecordsUnrouted:    1,
		ClassifyErrors:     2,
		EnvelopesPublished: 7,
		Destinations: []fork.DestinationStats{
			{Key: "errors", State: fork.StateWired, Forwarded: 3, Discarded: 4},
			{Key: "info", State: fork.StateFailed, Discarded: 3, Dropped: 4},
		},
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(sampleStats)

	expected := `
# HELP forkstream_destination_dropped_total Payloads not delivered because the destination failed.
# TYPE forkstream_destination_dropped_total counter
forkstream_destination_dropped_total{destination="errors",fork="logs"} 0
forkstream_destination_dropped_total{destination="info",fork="logs"} 4
# HELP forkstream_destination_forwarded_total Payloads written to the destination sink.
# TYPE forkstream_destination_forwarded_total counter
forkstream_destination_forwarded_total{destination="errors",fork="logs"} 3
forkstream_destination_forwarded_total{destination="info",fork="logs"} 0
# HELP forkstream_destination_state Filter state: 0 created, 1 resolving, 2 wired, 3 failed.
# TYPE forkstream_destination_state gauge
forkstream_destination_state{destination="errors",fork="logs"} 2
forkstream_destination_state{destination="info",fork="logs"} 3
# HELP forkstream_records_received_total Records read from the input stream.
# TYPE forkstream_records_received_total counter
forkstream_records_received_total{fork="logs"} 10
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"forkstream_destination_dropped_total",
		"forkstream_destination_forwarded_total",
		"forkstream_destination_state",
		"forkstream_records_received_total",
	)
	if err != nil {
		t.Error(err)
	}
}

func TestCollector_Count(t *testing.T) {
	c := NewCollector(sampleStats)

	// 4 fork-level series plus 4 per destination.
	if got := testutil.CollectAndCount(c); got != 12 {
		t.Errorf("CollectAndCount() = %d, want 12", got)
	}
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollector(sampleStats)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 8 {
		t.Errorf("families = %d, want 8", len(families))
	}
}

func TestCollector_NoDestinations(t *testing.T) {
	c := NewCollector(func() fork.Stats { return fork.Stats{Name: "empty"} })

	if got := testutil.CollectAndCount(c); got != 4 {
		t.Errorf("CollectAndCount() = %d, want 4", got)
	}
}
