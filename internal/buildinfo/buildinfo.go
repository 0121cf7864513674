// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/gat-college/faqbot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/gat-college/faqbot/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/gat-college/faqbot/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Info is the JSON shape served at "/" and printed by faqctl version.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Get returns the current build metadata; Version falls back to "dev".
func Get() Info {
	v := Version
	if v == "" {
		v = "dev"
	}
	return Info{Service: "faqbot", Version: v, Commit: Commit, BuildDate: BuildDate}
}
