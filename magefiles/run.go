//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed with prism.toml from the repository root.
func (Run) Engine() error {
	mg.Deps(Build.Vet)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Renders a fixed number of frames and exits. Handy to smoke test the frame loop.
func (Run) Frames() error {
	fmt.Println("Run 600 frames...")
	_, err := executeCmd("go", withArgs("run", "."), withEnv("PRISM_MAX_FRAMES=600"), withStream())
	return err
}
