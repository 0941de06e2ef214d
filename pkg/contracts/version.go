// Package contracts holds the types shared between the pipeline and
// its consumers, plus build version metadata.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current pipeline version.
	Version = "1.2.0"

	// DataFormatVersion tracks the warehouse row schema. Bump it when a
	// column is added or its meaning changes.
	DataFormatVersion = "v1"
)

// Set at build time via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionString returns the one-line version banner.
func VersionString() string {
	return fmt.Sprintf("tixcli v%s (schema %s, commit %s, built %s, %s)",
		Version, DataFormatVersion, GitCommit, BuildTime, runtime.Version())
}
