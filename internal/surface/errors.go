package surface

import "errors"

var (
	// ErrNoCredential means Initialize was called without a map access
	// token; the surface stays inert.
	ErrNoCredential = errors.New("surface: no map access credential configured")

	// ErrDisposed means the surface has been torn down.
	ErrDisposed = errors.New("surface: disposed")
)
