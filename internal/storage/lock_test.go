package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestLock_AcquireRelease(t *testing.T) {
	root := t.TempDir()
	lock := NewLock(root)

	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !lock.Held() {
		t.Error("Held() = false after Acquire")
	}

	pid, err := ReadLockPID(filepath.Join(root, LockFileName))
	if err != nil {
		t.Fatalf("ReadLockPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("lock pid = %d, want %d", pid, os.Getpid())
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("lock file still present after Release: %v", err)
	}
}

func TestLock_ReleaseIsIdempotent(t *testing.T) {
	lock := NewLock(t.TempDir())

	if err := lock.Release(); err != nil {
		t.Errorf("Release on absent lock: %v", err)
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func TestLock_HeldByLiveProcess(t *testing.T) {
	root := t.TempDir()
	first := NewLock(root)
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer func() { _ = first.Release() }()

	second := NewLock(root)
	err := second.Acquire()
	if !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second Acquire error = %v, want ErrLockHeld", err)
	}

	var held *LockHeldError
	if !errors.As(err, &held) {
		t.Fatalf("error %T is not *LockHeldError", err)
	}
	if held.PID != os.Getpid() {
		t.Errorf("LockHeldError.PID = %d, want %d", held.PID, os.Getpid())
	}
	if second.Held() {
		t.Error("second lock reports Held after failure")
	}
}

func TestLock_StaleLockIsReplaced(t *testing.T) {
	root := t.TempDir()
	marker := filepath.Join(root, LockFileName)
	if err := os.WriteFile(marker, []byte("424242\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lock := NewLock(root)
	lock.alive = func(pid int) bool {
		if pid != 424242 {
			t.Errorf("probed pid %d, want 424242", pid)
		}

		return false
	}

	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire over stale lock: %v", err)
	}
	defer func() { _ = lock.Release() }()

	pid, err := ReadLockPID(marker)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("lock pid = %d, want own pid %d", pid, os.Getpid())
	}
}

func TestLock_GarbageMarkerIsStale(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, LockFileName), []byte("not a pid"), 0o644); err != nil {
		t.Fatal(err)
	}

	lock := NewLock(root)
	lock.alive = func(int) bool {
		t.Error("liveness probed for unparseable marker")

		return true
	}
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_ = lock.Release()
}

func TestLock_MissingRootIsCreated(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", ".ops")
	lock := NewLock(root)
	if err := lock.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_ = lock.Release()
}

func TestIsProcessAlive(t *testing.T) {
	if !IsProcessAlive(os.Getpid()) {
		t.Error("IsProcessAlive(self) = false")
	}
	for _, pid := range []int{0, -1} {
		if IsProcessAlive(pid) {
			t.Errorf("IsProcessAlive(%d) = true", pid)
		}
	}
}

func TestReadLockPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	if err := os.WriteFile(path, []byte(" "+strconv.Itoa(77)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadLockPID(path)
	if err != nil || pid != 77 {
		t.Errorf("ReadLockPID = %d, %v; want 77", pid, err)
	}
}

func TestInspectAndBreakLock(t *testing.T) {
	tests := []struct {
		name      string
		marker    string
		force     bool
		wantHeld  bool
		wantAlive bool
		wantErr   error
		wantGone  bool
	}{
		{name: "no lock", wantGone: true},
		{name: "live holder", marker: strconv.Itoa(os.Getpid()), wantHeld: true, wantAlive: true, wantErr: ErrLockHeld},
		{name: "live holder forced", marker: strconv.Itoa(os.Getpid()), force: true, wantHeld: true, wantAlive: true, wantGone: true},
		{name: "dead holder", marker: "999999999", wantHeld: true, wantGone: true},
		{name: "garbage marker", marker: "not-a-pid", wantHeld: true, wantGone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, LockFileName)
			if tt.marker != "" {
				if err := os.WriteFile(path, []byte(tt.marker+"\n"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			st, err := InspectLock(root)
			if err != nil {
				t.Fatalf("InspectLock: %v", err)
			}
			if st.Held != tt.wantHeld || st.Alive != tt.wantAlive {
				t.Errorf("InspectLock = %+v, want held=%v alive=%v", st, tt.wantHeld, tt.wantAlive)
			}

			_, err = BreakLock(root, tt.force)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BreakLock err = %v, want %v", err, tt.wantErr)
			}
			_, statErr := os.Stat(path)
			if gone := os.IsNotExist(statErr); gone != tt.wantGone {
				t.Errorf("marker gone = %v, want %v", gone, tt.wantGone)
			}
		})
	}
}
