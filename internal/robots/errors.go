package robots

import "errors"

// ErrRobotsUnavailable indicates that robots data for an origin could not be
// obtained. Resolver treats it as an empty rule.
var ErrRobotsUnavailable = errors.New("robots data unavailable")

// ErrInvalidOrigin indicates an origin that is not of the form scheme://host.
var ErrInvalidOrigin = errors.New("invalid origin")
