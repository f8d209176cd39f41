package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// DefaultLabelText is a small PlantVillage-style label resource used across
// tests. Index order matters: it is the mock classifier's output space.
const DefaultLabelText = "Apple___healthy\n" +
	"Apple___Apple_scab\n" +
	"Apple___Cedar_apple_rust\n" +
	"Tomato___healthy\n" +
	"Tomato___Early_blight\n"

// WriteLabelFile writes label text to a temp file and returns its path.
func WriteLabelFile(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// GetProjectRoot walks up from the working directory until go.mod is found.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}

// GetProjectRootValidated returns the project root, verifying it looks like
// this repository.
func GetProjectRootValidated() (string, error) {
	root, err := GetProjectRoot()
	if err != nil {
		return "", err
	}
	for _, dir := range []string{"internal", "cmd"} {
		if info, statErr := os.Stat(filepath.Join(root, dir)); statErr != nil || !info.IsDir() {
			return "", fmt.Errorf("invalid project root %s: missing %s/", root, dir)
		}
	}
	return root, nil
}
