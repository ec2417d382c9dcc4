// Package version carries build provenance injected via ldflags. Distinct
// from the engine algorithm revision, which is versioned in the kinematics
// package and recorded on every result.
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
