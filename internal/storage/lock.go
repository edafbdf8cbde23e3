package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/valksor/go-opsdesk/internal/log"
)

// LockFileName is the marker file created at the store root while a process
// holds the store.
const LockFileName = ".lock"

const staleRetryDelay = 25 * time.Millisecond

var (
	// ErrLockHeld is returned when a live process already holds the lock.
	ErrLockHeld = errors.New("another process holds the lock")

	// ErrLockAcquisitionFailed is returned when a stale lock could not be
	// replaced on the single retry.
	ErrLockAcquisitionFailed = errors.New("lock acquisition failed")
)

// LockHeldError names the process holding the lock.
type LockHeldError struct {
	Path string
	PID  int
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("%s (pid %d, %s)", ErrLockHeld, e.PID, e.Path)
}

func (e *LockHeldError) Unwrap() error {
	return ErrLockHeld
}

// Lock is an advisory, PID-stamped marker file. It never waits: a live
// holder makes Acquire fail immediately so the caller can retry later.
type Lock struct {
	path  string
	pid   int
	alive func(pid int) bool

	mu   sync.Mutex
	held bool
}

// NewLock returns the lock for a store root.
func NewLock(root string) *Lock {
	return &Lock{
		path:  filepath.Join(root, LockFileName),
		pid:   os.Getpid(),
		alive: IsProcessAlive,
	}
}

// Path returns the marker file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire creates the marker file. If it already exists and names a dead
// process (or vanished while being inspected), the marker is removed and
// creation is retried exactly once.
func (l *Lock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	err := l.create()
	if err == nil {
		l.held = true
		log.Debug("lock acquired", "path", l.path, "pid", l.pid)

		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %w", ErrLockAcquisitionFailed, err)
	}

	holder, readErr := ReadLockPID(l.path)
	if readErr == nil && l.alive(holder) {
		return &LockHeldError{Path: l.path, PID: holder}
	}

	log.Debug("removing stale lock", "path", l.path, "pid", holder)
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove stale lock: %w", ErrLockAcquisitionFailed, err)
	}
	time.Sleep(staleRetryDelay)

	if err := l.create(); err != nil {
		return fmt.Errorf("%w: %w", ErrLockAcquisitionFailed, err)
	}
	l.held = true
	log.Debug("lock acquired after stale cleanup", "path", l.path, "pid", l.pid)

	return nil
}

func (l *Lock) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.Itoa(l.pid) + "\n"); err != nil {
		_ = f.Close()
		_ = os.Remove(l.path)

		return fmt.Errorf("write lock file: %w", err)
	}

	return f.Close()
}

// Release removes the marker file. Releasing an absent lock is not an error.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = false
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}
	log.Debug("lock released", "path", l.path)

	return nil
}

// Held reports whether this Lock value currently owns the marker.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.held
}

// ReadLockPID returns the PID recorded in a marker file.
func ReadLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse lock pid: %w", err)
	}

	return pid, nil
}

// interruptSignals are the signals that trigger lock cleanup.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// exitOnSignal is replaced in tests.
var exitOnSignal = func(sig os.Signal) {
	code := 1
	if s, ok := sig.(syscall.Signal); ok {
		code = 128 + int(s)
	}
	os.Exit(code)
}

// guard releases the lock if the process is interrupted while it is held.
// The returned stop function must be called once the lock is released
// normally; it uninstalls the handler.
func (l *Lock) guard() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, interruptSignals...)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh)
			if err := l.Release(); err != nil {
				log.Error("release lock on interrupt", log.Err(err))
			}
			exitOnSignal(sig)
		case <-done:
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}

// LockState describes the marker at a store root.
type LockState struct {
	Path  string `json:"path"`
	Held  bool   `json:"held"`
	PID   int    `json:"pid,omitempty"`
	Alive bool   `json:"alive"`
}

// InspectLock reports who holds the lock at root without touching it.
func InspectLock(root string) (*LockState, error) {
	st := &LockState{Path: filepath.Join(root, LockFileName)}

	pid, err := ReadLockPID(st.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return st, nil
	case err != nil:
		if _, statErr := os.Stat(st.Path); statErr != nil {
			return nil, err
		}
		// Unreadable PID: held by nobody alive.
		st.Held = true
		return st, nil
	}
	st.Held = true
	st.PID = pid
	st.Alive = IsProcessAlive(pid)

	return st, nil
}

// BreakLock removes a lock left behind by a dead process. A live holder is
// only removed with force.
func BreakLock(root string, force bool) (*LockState, error) {
	st, err := InspectLock(root)
	if err != nil {
		return nil, err
	}
	if !st.Held {
		return st, nil
	}
	if st.Alive && !force {
		return st, &LockHeldError{Path: st.Path, PID: st.PID}
	}
	if err := os.Remove(st.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return st, fmt.Errorf("remove lock: %w", err)
	}
	log.Debug("lock broken", "path", st.Path, "pid", st.PID, "alive", st.Alive)

	return st, nil
}
