// Package buildinfo carries build-time metadata that is not part of the
// user configuration.
package buildinfo

import "runtime/debug"

// UnknownValue is reported for metadata the build did not inject.
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/birdeye-app/birdeye/internal/buildinfo.version=...".
var (
	version   string
	buildDate string
)

// Context holds the version and build date of the running binary.
type Context struct {
	version   string
	buildDate string
}

// NewContext creates a Context. Empty values report as UnknownValue.
func NewContext(version, buildDate string) *Context {
	return &Context{version: version, buildDate: buildDate}
}

// Current returns the metadata injected at link time, falling back to the
// module version recorded by the Go toolchain.
func Current() *Context {
	v := version
	if v == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return NewContext(v, buildDate)
}

// Version returns the build version.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns the build date.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Release is the release name reported to telemetry.
func (c *Context) Release() string {
	return "birdeye@" + c.Version()
}
