package version

// version is overridden at build time with -ldflags "-X .../pkg/version.version=v1.2.3".
var version = "dev"

// Version reports the build version printed by -version and the health endpoint.
func Version() string {
	return version
}
