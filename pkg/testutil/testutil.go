package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

// CreateFile creates a file with the given content in the specified directory.
// It fails the test if the file cannot be created.
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	// Create parent directories if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent directories for %s: %v", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}

	return path
}

// FakeExecutable writes an executable shell script named name into dir and
// returns its path. body is the script without the shebang line.
func FakeExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := CreateFile(t, dir, name, "#!/bin/sh\n"+body)
	if err := os.Chmod(path, 0755); err != nil {
		t.Fatalf("Failed to make %s executable: %v", path, err)
	}
	return path
}

// ReadLines returns the non-empty lines of a file, or nil if it does not
// exist.
func ReadLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// IsolateXDG points the XDG base directories at a fresh temporary tree so
// tests never read the user's configuration or write to their state
// directory. It returns the tree root.
func IsolateXDG(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(root, "etc"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return root
}
