package version

// Version is the semantic version of this build. Release tooling overrides
// it with -ldflags.
var Version = "0.1.0-dev"
