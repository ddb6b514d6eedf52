//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "orphanclean"
	mainPath   = "./cmd/orphanclean"
)

// Default target to run when none is specified
var Default = Build

// Build builds the orphanclean binary
func Build() error {
	fmt.Println("Building", binaryName)
	return sh.RunV("go", "build", "-o", binaryName, mainPath)
}

// Install installs the binary into GOPATH/bin
func Install() error {
	return sh.RunV("go", "install", mainPath)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestRace runs all tests with the race detector
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning")
	for _, path := range []string{binaryName, filepath.Join("dist")} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}
