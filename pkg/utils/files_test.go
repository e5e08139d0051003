package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMakeDirAndMoveFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "a", "b")

	if err := MakeDir(dir); err != nil {
		t.Fatalf("MakeDir failed: %v", err)
	}

	src := filepath.Join(root, "src.txt")
	if err := os.WriteFile(src, []byte("peaks"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dst := filepath.Join(dir, "dst.txt")
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("Expected moved file at %s: %v", dst, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Expected source to be gone, got %v", err)
	}

	if err := MoveFile(src, dst); err == nil {
		t.Error("Expected error moving missing file")
	}
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch.wav")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists failed: %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Errorf("Expected no error for missing file, got %v", err)
	}
}
