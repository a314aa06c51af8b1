package physics

import "errors"

// ErrVersionMismatch indicates an input built for a different update law.
var ErrVersionMismatch = errors.New("physics: input does not match dynamics version")
