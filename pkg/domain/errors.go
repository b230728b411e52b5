package domain

import "errors"

// ErrNotFound is returned when a registry key was never registered.
var ErrNotFound = errors.New("not found")

// ErrIncompatible is returned by slots asked to connect to a kind they do not accept.
var ErrIncompatible = errors.New("incompatible connection")

// ErrMalformedDocument marks a persisted entry that cannot be restored.
var ErrMalformedDocument = errors.New("malformed graph document")

// ErrGraphNotFound is returned when a named graph cannot be found in the store.
var ErrGraphNotFound = errors.New("graph not found")

// ErrNoStore is returned by named save/load when the engine has no store.
var ErrNoStore = errors.New("no graph store configured")
