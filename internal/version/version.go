// Package version exposes build metadata for go-slackpurge.
//
// Set at build time with ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/go-slackpurge/internal/version.Version=1.0.0 ..."
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata printed by -version and logged at startup
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func String() string {
	return Version
}

// UserAgent identifies outbound API requests
func UserAgent() string {
	return fmt.Sprintf("go-slackpurge/%s (%s)", String(), runtime.GOOS)
}
