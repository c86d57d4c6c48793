package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/forkstream/internal/fork"
	"github.com/rickgao/forkstream/internal/version"
)

type destinationHealth struct {
	State     string `json:"state"`
	Forwarded int64  `json:"forwarded"`
	Discarded int64  `json:"discarded"`
	Dropped   int64  `json:"dropped"`
}

type healthResponse struct {
	Status       string                       `json:"status"`
	Version      version.Info                 `json:"version"`
	ForkID       string                       `json:"fork_id"`
	Received     int64                        `json:"records_received"`
	Unrouted     int64                        `json:"records_unrouted"`
	Components   map[string]any               `json:"components"`
	Destinations map[string]destinationHealth `json:"destinations"`
}

// healthHandler reports fork and database health. ping may be nil when no
// database is configured. Failed destinations degrade the status; an
// unreachable database makes it unhealthy.
func healthHandler(stats func() fork.Stats, ping func(context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		s := stats()
		health := healthResponse{
			Status:       "healthy",
			Version:      version.Get(),
			ForkID:       s.ID,
			Received:     s.RecordsReceived,
			Unrouted:     s.RecordsUnrouted,
			Components:   make(map[string]any),
			Destinations: make(map[string]destinationHealth, len(s.Destinations)),
		}

		for _, d := range s.Destinations {
			health.Destinations[d.Key] = destinationHealth{
				State:     d.State.String(),
				Forwarded: d.Forwarded,
				Discarded: d.Discarded,
				Dropped:   d.Dropped,
			}
			if d.State == fork.StateFailed {
				health.Status = "degraded"
			}
		}

		if ping != nil {
			if err := ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
