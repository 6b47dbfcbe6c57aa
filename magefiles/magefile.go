// Package main provides build targets for the linkstash project using Mage.
//
// Usage:
//
//	mage build          Compile linkstash binary to bin/
//	mage test           Run all tests (unit + integration)
//	mage testUnit       Run only unit tests (exclude integration)
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install linkstash to GOPATH/bin

//go:build mage

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
)

const (
	binaryName = "linkstash"
	binaryDir  = "bin"
	cmdDir     = "./cmd/linkstash"
)

// Build compiles the linkstash binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests (unit and integration).
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestUnit runs only unit tests, excluding the tests/ directory.
func TestUnit() error {
	out, err := sh.Output("go", "list", "./...")
	if err != nil {
		return err
	}
	var pkgs []string
	for _, p := range strings.Split(out, "\n") {
		if p != "" && !strings.Contains(p, "/tests/") {
			pkgs = append(pkgs, p)
		}
	}
	return sh.RunV("go", append([]string{"test"}, pkgs...)...)
}

// Lint runs golangci-lint over the module.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install installs the linkstash binary to GOPATH/bin.
func Install() error {
	return sh.RunV("go", "install", cmdDir)
}
