package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherInvalidatesOnExternalEdit(t *testing.T) {
	dir := t.TempDir()
	invalidated := make(chan string, 8)
	w, err := NewWatcher(dir, func(name string) { invalidated <- name }, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
		_ = w.Close()
	})

	if err := os.WriteFile(filepath.Join(dir, "Eldoria.json"), []byte(`{"entries":{}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case name := <-invalidated:
		if name != "Eldoria" {
			t.Fatalf("expected Eldoria, got %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for invalidation")
	}
}

func TestWatcherRequiresCallback(t *testing.T) {
	if _, err := NewWatcher(t.TempDir(), nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
