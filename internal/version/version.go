// Package version carries build metadata injected with -ldflags.
package version

// Set via -ldflags "-X github.com/doeshing/shai-copilot/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
