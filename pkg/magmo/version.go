package magmo

var (
	// Version is set by the build via ldflags.
	Version = "v0.3.1"
	// Build is the build timestamp, set via ldflags.
	Build = "n/a"
)
