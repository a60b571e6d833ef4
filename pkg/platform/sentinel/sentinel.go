package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrCorrupt: a stored value cannot be decoded
//   - ErrUnavailable: backing service could not be reached
var (
	ErrCorrupt     = errors.New("corrupt record")
	ErrUnavailable = errors.New("unavailable")
)
