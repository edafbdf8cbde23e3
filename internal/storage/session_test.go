package storage

import (
	"errors"
	"os"
	"testing"
)

func TestWithSession(t *testing.T) {
	root := t.TempDir()

	err := WithSession(root, func(s Store) error {
		if _, err := os.Stat(NewLock(root).Path()); err != nil {
			t.Errorf("lock not held inside session: %v", err)
		}

		return s.Create("note", "notes/a.md", map[string]any{"title": "A"}, "hello")
	})
	if err != nil {
		t.Fatalf("WithSession: %v", err)
	}

	if _, err := os.Stat(NewLock(root).Path()); !os.IsNotExist(err) {
		t.Errorf("lock left behind after session: %v", err)
	}
}

func TestWithSession_ReleasesOnError(t *testing.T) {
	root := t.TempDir()
	boom := errors.New("boom")

	err := WithSession(root, func(Store) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("WithSession error = %v, want boom", err)
	}
	if _, err := os.Stat(NewLock(root).Path()); !os.IsNotExist(err) {
		t.Errorf("lock left behind after failed session: %v", err)
	}
}

func TestWithSession_Contention(t *testing.T) {
	root := t.TempDir()

	err := WithSession(root, func(Store) error {
		inner := WithSession(root, func(Store) error {
			t.Error("nested session should not run")

			return nil
		})
		if !errors.Is(inner, ErrLockHeld) {
			t.Errorf("nested WithSession error = %v, want ErrLockHeld", inner)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("WithSession: %v", err)
	}
}
