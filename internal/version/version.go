// Package version holds the prodstore build identity.
// Values are set at build time via -ldflags.
package version

import "fmt"

// Version is the current prodstore version.
// Override at build time: go build -ldflags "-X github.com/prodstore/prodstore/internal/version.Version=1.2.0"
var Version = "1.0.0"

// BuildTime is the build timestamp.
// Override at build time: go build -ldflags "-X github.com/prodstore/prodstore/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var BuildTime = "unknown"

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("prodstore %s (built %s)", Version, BuildTime)
}
