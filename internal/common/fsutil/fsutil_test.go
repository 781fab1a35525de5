package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	// Set a deterministic HOME for the duration of this test so we never skip.
	origHome, hadHome := os.LookupEnv("HOME")
	origUserProfile, hadUserProfile := os.LookupEnv("USERPROFILE")
	t.Cleanup(func() {
		if hadHome {
			_ = os.Setenv("HOME", origHome)
		} else {
			_ = os.Unsetenv("HOME")
		}
		if hadUserProfile {
			_ = os.Setenv("USERPROFILE", origUserProfile)
		} else {
			_ = os.Unsetenv("USERPROFILE")
		}
	})

	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	_ = os.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		_ = os.Setenv("USERPROFILE", home)
	}
	// raw path unaffected
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// ~ expansion
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	// ~/subdir
	sub := "test-sub"
	exp, err := ExpandHome("~/" + sub)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if runtime.GOOS == "windows" {
		if filepath.Base(exp) != sub {
			t.Fatalf("unexpected expanded path: %q", exp)
		}
	} else {
		expected := filepath.Join(home, sub)
		if exp != expected {
			t.Fatalf("expected %q, got %q", expected, exp)
		}
	}
}

func TestEnsureDirsAndFileSize(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "uploads")
	b := filepath.Join(root, "nested", "results")
	if err := EnsureDirs(a, "", b); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !PathExists(a) || !PathExists(b) {
		t.Fatalf("dirs not created")
	}
	// idempotent
	if err := EnsureDirs(a); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if _, err := FileSize(a); err == nil {
		t.Fatalf("expected error for directory")
	}
	p := filepath.Join(a, "w.onnx")
	if err := os.WriteFile(p, make([]byte, 42), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if n, err := FileSize(p); err != nil || n != 42 {
		t.Fatalf("size=%d err=%v", n, err)
	}
	if _, err := FileSize(filepath.Join(root, "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
