// Package version reports the sot build version.
package version

import (
	_ "embed"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionContent string

// Commit is set at build time with -ldflags "-X .../internal/version.Commit=<sha>".
var Commit = ""

// Get returns the current version, with whitespace trimmed
func Get() string {
	return strings.TrimSpace(versionContent)
}

// Full returns the version with commit and Go toolchain, for `sot version`.
func Full() string {
	var b strings.Builder
	b.WriteString("sot ")
	b.WriteString(Get())
	if Commit != "" {
		b.WriteString(" (" + Commit + ")")
	}
	b.WriteString(" " + runtime.Version())
	return b.String()
}
