// Package version reports build metadata for the version command and the
// tracer resource. Values are injected with ldflags:
//
//	go build -ldflags "-X github.com/ncobase/searchsync/version.Version=v1.2.0 \
//	  -X github.com/ncobase/searchsync/version.Branch=main"
//
// Anything left unset is filled from the VCS stamp of the binary when
// available.
package version
