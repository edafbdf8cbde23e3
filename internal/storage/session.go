package storage

import (
	"errors"
	"fmt"
)

// Session is an open store guarded by the store lock for its whole lifetime.
type Session struct {
	*FileStore
	lock      *Lock
	stopGuard func()
}

// Open acquires the lock for root and returns a session over its store.
// The caller must Close the session.
func Open(root string) (*Session, error) {
	store, err := NewFileStore(root)
	if err != nil {
		return nil, err
	}

	lock := NewLock(store.Root())
	if err := lock.Acquire(); err != nil {
		return nil, err
	}

	return &Session{
		FileStore: store,
		lock:      lock,
		stopGuard: lock.guard(),
	}, nil
}

// Close releases the lock and removes the interrupt handler.
func (s *Session) Close() error {
	err := s.lock.Release()
	s.stopGuard()

	return err
}

// WithSession runs fn with an open session and always closes it.
func WithSession(root string, fn func(Store) error) (err error) {
	s, err := Open(root)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(s)
}
