// Package version holds build metadata for the relay binary.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/rickgao/stock-relay/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/stock-relay/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/stock-relay/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	         ./cmd/relay
package version

var (
	// Version is reported by GET / and in the startup log.
	Version = "dev"

	// Commit is the short git hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (RFC 3339).
	BuildTime = "unknown"
)

// String returns "version (commit) built time".
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
