package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileWatcher_Start(t *testing.T) {
	tmpDir := t.TempDir()

	manifest := filepath.Join(tmpDir, "optshim.manifest.yaml")
	other := filepath.Join(tmpDir, "notes.txt")
	for _, f := range []string{manifest, other} {
		if err := os.WriteFile(f, []byte("initial content"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	// Track changes
	var mu sync.Mutex
	var changes [][]string

	watcher, err := NewFileWatcher([]string{manifest}, nil, func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, files)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	time.Sleep(200 * time.Millisecond) // Allow watcher to initialize
	if err := os.WriteFile(other, []byte("ignored"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}
	if err := os.WriteFile(manifest, []byte("modified content"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	// Wait for debounce
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(changes) == 0 {
		t.Fatal("Expected changes to be detected")
	}
	for _, batch := range changes {
		for _, f := range batch {
			if filepath.Base(f) != "optshim.manifest.yaml" {
				t.Errorf("unexpected change reported for %s", f)
			}
		}
	}
}

func TestFileWatcher_Run(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "m.yaml")
	if err := os.WriteFile(manifest, nil, 0644); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewFileWatcher([]string{manifest}, nil, func([]string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := watcher.Run(ctx); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
}

func TestNewFileWatcher_NoFiles(t *testing.T) {
	if _, err := NewFileWatcher(nil, nil, func([]string) error { return nil }); err == nil {
		t.Error("expected an error for an empty file list")
	}
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var called bool
	var files []string

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
		files = f
	})

	debouncer.Add("b.yaml")
	debouncer.Add("a.yaml")
	debouncer.Add("b.yaml") // Duplicate

	// Wait for debounce
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if !called {
		t.Fatal("Expected callback to be called")
	}

	if len(files) != 2 || files[0] != "a.yaml" || files[1] != "b.yaml" {
		t.Errorf("Expected [a.yaml b.yaml], got %v", files)
	}
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})

	// First batch
	debouncer.Add("a.yaml")
	time.Sleep(80 * time.Millisecond)

	// Second batch
	debouncer.Add("b.yaml")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if callCount != 2 {
		t.Errorf("Expected 2 callback calls, got %d", callCount)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var mu sync.Mutex
	var called bool

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("a.yaml")
	debouncer.Stop()
	debouncer.Add("b.yaml")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if called {
		t.Error("Expected no callback after Stop")
	}
}

func TestFileWatcher_Matches(t *testing.T) {
	dir := t.TempDir()
	watcher := &FileWatcher{files: map[string]struct{}{
		filepath.Join(dir, "optshim.yaml"): {},
	}}

	tests := []struct {
		path     string
		expected bool
	}{
		{filepath.Join(dir, "optshim.yaml"), true},
		{filepath.Join(dir, "sub", "..", "optshim.yaml"), true},
		{filepath.Join(dir, "optshim.yml"), false},
		{filepath.Join(dir, ".optshim.yaml.swp"), false},
	}

	for _, tt := range tests {
		if got := watcher.matches(tt.path); got != tt.expected {
			t.Errorf("matches(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "m.yaml")
	if err := os.WriteFile(manifest, nil, 0644); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewFileWatcher([]string{manifest}, nil, func([]string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}

	// Second stop is a no-op
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func(files []string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("optshim.manifest.yaml")
	}
}
