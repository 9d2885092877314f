package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is the panic value for calls on a Manager that was not
	// built with NewManager or Open.
	ErrNoSession     = errors.New("cart: manager used outside of an initialized session")
	ErrAlreadyLoaded = errors.New("cart: snapshot already loaded")
	ErrPersist       = errors.New("cart: snapshot not persisted")
)

// PersistError reports that the in-memory cart moved on but the store did
// not accept the snapshot. The in-memory state stands; call Flush to retry.
type PersistError struct {
	Version uint64
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cart: persist snapshot v%d: %v", e.Version, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersist }
