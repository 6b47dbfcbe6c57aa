// Package integration exercises linkstash end to end: the sqlite backend
// through the facade, and the CLI through a built binary.
package integration

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// linkstashBin is the path to the built linkstash binary.
	linkstashBin string
	// buildErr captures any build failure from TestMain.
	buildErr error
)

// findProjectRoot walks up from the working directory to the go.mod root.
func findProjectRoot() (string, error) {
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
			return "", errors.New("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// buildBinary compiles cmd/linkstash into a temp location once per test run.
func buildBinary() error {
	root, err := findProjectRoot()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "linkstash-bin")
	if err != nil {
		return err
	}
	linkstashBin = filepath.Join(dir, "linkstash")

	cmd := exec.Command("go", "build", "-o", linkstashBin, "./cmd/linkstash")
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.New("building linkstash: " + err.Error() + "\n" + string(out))
	}
	return nil
}

// cliEnv is one isolated CLI workspace: its own config and data directories.
type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	if buildErr != nil {
		t.Fatalf("linkstash binary unavailable: %v", buildErr)
	}
	base := t.TempDir()
	return &cliEnv{
		configDir: filepath.Join(base, "config"),
		dataDir:   filepath.Join(base, "data"),
	}
}

// run executes the linkstash binary with the env's directories and returns
// combined stdout, stderr, and the exit error (nil on exit 0).
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	cmd := exec.Command(linkstashBin, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// mustRun executes the binary and fails the test on a non-zero exit.
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("linkstash %v failed: %v\nstdout: %s\nstderr: %s", args, err, stdout, stderr)
	}
	return stdout
}
