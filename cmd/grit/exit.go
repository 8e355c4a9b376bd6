package main

import (
	"errors"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/remote"
)

// exitCodeFor maps an error to the process exit code: protocol, pack, and
// object-store corruption exit 128 (Git's convention for fatal repository
// errors); usage and I/O failures exit 1.
func exitCodeFor(err error) int {
	var protoErr *remote.ProtocolError
	var packErr *object.PackError
	switch {
	case errors.As(err, &protoErr),
		errors.As(err, &packErr),
		errors.Is(err, object.ErrCorrupt),
		errors.Is(err, object.ErrNotFound):
		return 128
	}
	return 1
}
