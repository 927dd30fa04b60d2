package config

// Linker-injected build metadata variables. These are set at compile time via
// -ldflags, for example:
//
//	go build -ldflags "-X mistportal/internal/config.version=1.2.3 \
//	    -X mistportal/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X mistportal/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/mistctl
//
// Default values are used during local development when ldflags are not set.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo constructs a BuildInfo from the linker-injected global variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// String renders the one-line form printed by `mistctl version`.
func (b BuildInfo) String() string {
	return b.Version + " (commit " + b.Commit + ", built " + b.BuildTime + ")"
}
