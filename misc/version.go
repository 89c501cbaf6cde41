// Package misc provides build related information.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "csscover"

// overwritten by linker when building release binaries
var (
	version = ""
	gitHash = ""
)

var readBuildInfo = sync.OnceValues(func() (ver, hash string) {
	ver, hash = "dev", "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		ver = v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			hash = s.Value
			if len(hash) > 12 {
				hash = hash[:12]
			}
		}
	}
	return
})

func GetAppName() string {
	return appName
}

// GetVersion returns version set at link time or module version from build
// info.
func GetVersion() string {
	if version != "" {
		return version
	}
	v, _ := readBuildInfo()
	return v
}

func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	_, h := readBuildInfo()
	return h
}
