// Package version reports build version information.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/cataloghq/idkit/version.Version=1.0.0"
//
// Fields not set at build time are filled from the binary's embedded
// build info where available.
package version
