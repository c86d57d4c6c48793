// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/forkstream/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/forkstream/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/forkd
package version

// Build-time variables (set via ldflags)
var (
	Version = "dev"
	Commit  = "unknown"
)

// Info is the version block reported by the health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Get returns the current build information.
func Get() Info {
	return Info{Version: Version, Commit: Commit}
}

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ")"
}
