// Package version reports build metadata for the decktools binary.
//
// Release builds set the values below through -ldflags, e.g.
//
//	-X github.com/hupe1980/decktools/internal/version.version=v0.3.0
//
// Binaries built with "go install" fall back to the module version and VCS
// stamps recorded in the build info.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

const unset = "dev"

var (
	version   = unset
	gitCommit = "none"
	buildDate = "unknown"
)

// Info holds the build metadata for the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	info := Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok && version == unset {
		info = fromBuildInfo(info, bi)
	}

	info.GitCommit = shortCommit(info.GitCommit)

	return info
}

func fromBuildInfo(info Info, bi *debug.BuildInfo) Info {
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.time":
			info.BuildDate = s.Value
		}
	}

	return info
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	return fmt.Sprintf("decktools %s (commit: %s, built: %s, %s %s)",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
