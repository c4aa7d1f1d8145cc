package session

import (
	"errors"
	"io/fs"
)

var (
	// ErrConfiguration indicates an invalid Manager setup (bad unset mode, no id generator, empty secrets)
	ErrConfiguration = errors.New("session.configuration")

	// ErrInvalidArgument indicates a value of the wrong kind was assigned to a cookie attribute
	ErrInvalidArgument = errors.New("session.invalid_argument")

	// ErrNotFound is the normalized "no such session" signal of a store backend
	ErrNotFound = errors.New("session.not_found")

	// ErrStoreIO wraps any failure reported by a store backend
	ErrStoreIO = errors.New("session.store_io")

	// ErrSessionMissing is returned by Reload when the store has no record for the session id
	ErrSessionMissing = errors.New("session.missing")

	// ErrNoSession is returned by handle operations after the session was unset or destroyed
	ErrNoSession = errors.New("session.detached")
)

// IsNotFound reports whether err is a backend "missing key" signal.
// File based backends surface fs.ErrNotExist (ENOENT), which is treated the same way.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

func storeErr(err error) error {
	if err == nil || errors.Is(err, ErrStoreIO) {
		return err
	}
	return errors.Join(ErrStoreIO, err)
}
