package version

import "runtime"

// Version is the current prospect release.
const Version = "0.4.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "prospect version " + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}

// UserAgent identifies the client to the lead service.
func UserAgent() string {
	return "prospect/" + Version + " (" + runtime.GOOS + "; " + runtime.Version() + ")"
}
