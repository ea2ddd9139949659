package report

import "errors"

// ErrUnknownFormat indicates an output format no writer implements.
var ErrUnknownFormat = errors.New("unknown report format")
