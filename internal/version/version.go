package version

// Set at build time via -ldflags:
//
//	-X .../internal/version.Version=v1.2.3
//	-X .../internal/version.Commit=abc1234
var (
	Version = "dev"
	Commit  = "unknown"
)

// UserAgent returns the HTTP User-Agent string for outgoing API calls.
func UserAgent() string {
	return "powerwall-exporter/" + Version
}
