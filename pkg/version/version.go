// Package version holds build metadata stamped in with -ldflags.
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Full() string {
	return Version + " (" + Commit + ") built on " + Date
}

// UserAgent is sent by the northbound client.
func UserAgent() string {
	return "osvlan/" + Version
}
