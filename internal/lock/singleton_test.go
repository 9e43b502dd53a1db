package lock

import (
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	g, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	g.Release()
}

func TestAcquireFailsWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire (first): %v", err)
	}
	defer first.Release()

	if _, err := Acquire(path); err == nil {
		t.Error("expected second Acquire on the same path to fail")
	}
}

func TestAcquireReclaimsStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire (first): %v", err)
	}
	// Simulate an unclean shutdown: the socket file survives, but nothing is listening.
	first.listener.Close()

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire should reclaim a stale socket file: %v", err)
	}
	second.Release()
}
