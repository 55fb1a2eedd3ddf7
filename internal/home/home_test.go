package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultsToUserHome(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if filepath.Base(d.Path()) != DefaultDirName {
		t.Errorf("expected default dir name %q, got %q", DefaultDirName, d.Path())
	}
}

func TestPaths(t *testing.T) {
	d, err := New("/tmp/snipd-test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d.ConfigPath() != "/tmp/snipd-test/config.yaml" {
		t.Errorf("unexpected config path: %s", d.ConfigPath())
	}
	if d.DBPath() != "/tmp/snipd-test/snipd.db" {
		t.Errorf("unexpected db path: %s", d.DBPath())
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "home")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if d.Exists() {
		t.Fatal("expected directory to not exist yet")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !d.Exists() {
		t.Error("expected directory to exist")
	}
	if d.ConfigExists() {
		t.Error("expected no config file yet")
	}

	if err := os.WriteFile(d.ConfigPath(), []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if !d.ConfigExists() {
		t.Error("expected config file to be detected")
	}
}
