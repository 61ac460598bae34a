// Package version reports the build version of ts-judge
package version

import (
	"embed"
	"io/fs"
	"runtime/debug"
	"strings"
)

// version.txt is written by the release build, the pattern also matches this
// file so the embed never fails
//
//go:embed version.*
var versions embed.FS

// Version is the release version, module version or vcs revision in that order
var Version = "devel"

func init() {
	if b, err := fs.ReadFile(versions, "version.txt"); err == nil {
		if v := strings.TrimSpace(string(b)); v != "" {
			Version = v
			return
		}
	}
	inf, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if v := inf.Main.Version; v != "" && v != "(devel)" {
		Version = v
		return
	}
	for _, s := range inf.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			Version = "devel-" + s.Value[:12]
		}
	}
}
