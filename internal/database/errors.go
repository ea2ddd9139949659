package database

import "errors"

// ErrNotFound indicates that the requested database file does not exist.
var ErrNotFound = errors.New("database not found")
