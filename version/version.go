package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// FormatVersion is the layout version stamped into every builder file
// header. Bump the major when older binaries can no longer reconcile the
// files this one writes.
const FormatVersion = "1.0.0"

// Info contains version and build information
type Info struct {
	CommitHash    string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime     string `json:"build_time" yaml:"build_time"`
	Version       string `json:"version" yaml:"version"`
	FormatVersion string `json:"format_version" yaml:"format_version"`
	GoVersion     string `json:"go_version" yaml:"go_version"`
	Platform      string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash:    CommitHash,
		BuildTime:     BuildTime,
		Version:       Version,
		FormatVersion: FormatVersion,
		GoVersion:     runtime.Version(),
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("buildergen %s (commit %s, built %s, format v%s)", i.Version, i.CommitHash, i.BuildTime, i.FormatVersion)
	}
	return fmt.Sprintf("buildergen dev (commit %s, built %s, format v%s)", i.CommitHash, i.BuildTime, i.FormatVersion)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Compatible reports whether a builder file stamped with format can be
// reconciled by this binary. Unparseable stamps are treated as compatible;
// the file is rewritten with the current stamp anyway.
func Compatible(format string) bool {
	theirs, err := semver.NewVersion(format)
	if err != nil {
		return true
	}
	return theirs.Major() <= semver.MustParse(FormatVersion).Major()
}
