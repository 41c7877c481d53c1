//go:build !linux

package sandbox

import "os/exec"

// applyOS is unreachable: ApplyOS only calls it when OSSandboxSupported
// returns true, which is Linux-only. Defined here so the package builds on
// every platform.
func applyOS(cmd *exec.Cmd, cfg OSConfig) error {
	return nil
}
