// Package version reports the library build version. It feeds the default
// User-Agent header and the service.version trace attribute.
//
// Release builds set the version with -ldflags:
//
//	go build -ldflags "-X github.com/emmanuelhcpk/wolmo-networking/version.Version=1.4.0"
package version
