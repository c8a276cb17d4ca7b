package opfetch

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the library version. Release builds set it with
// -ldflags "-X github.com/ambiyansyah-risyal/opfetch.Version=vX.Y.Z".
var Version = "v0.3.0"

const modulePath = "github.com/ambiyansyah-risyal/opfetch"

// BuildInfo describes the library build linked into the running binary.
type BuildInfo struct {
	Version   string
	Module    string
	GoVersion string
}

// ReadBuildInfo reports Version, or the module version recorded by the Go
// toolchain when opfetch is a dependency of the main module.
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version, Module: modulePath, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, dep := range bi.Deps {
		if dep.Path == modulePath && dep.Version != "" && dep.Version != "(devel)" {
			info.Version = dep.Version
		}
	}
	return info
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("opfetch %s (%s)", b.Version, b.GoVersion)
}

// DefaultUserAgent is sent by the built-in transports when the request has
// no User-Agent header.
func DefaultUserAgent() string {
	return "opfetch/" + Version
}
