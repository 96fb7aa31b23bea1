// Package version reports the build identity of the flair binaries.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X github.com/ricokahler/flair/internal/version.Version=v1.0.0"
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

var readBuildInfo = debug.ReadBuildInfo

// Get returns Version, falling back to the module version and then to the
// vcs revision stamped by the go tool
func Get() string {
	if Version != "dev" {
		return Version
	}
	info, ok := readBuildInfo()
	if !ok {
		return Version
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return Version
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	v := "dev-" + rev
	if dirty {
		v += "-dirty"
	}
	return v
}

// Full appends commit and build time when known
func Full() string {
	v := Get()
	if Commit != "" {
		v = fmt.Sprintf("%s (commit: %s)", v, Commit)
	}
	if BuildTime != "" {
		v = fmt.Sprintf("%s built %s", v, BuildTime)
	}
	return v
}
