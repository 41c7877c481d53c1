package sandbox

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// OSConfig describes the local process-isolation posture a command should
// run under when no remote sandbox backend (Daytona) is configured.
type OSConfig struct {
	// NoNewPrivileges prevents the child (and anything it execs) from
	// gaining privileges its parent didn't already have.
	NoNewPrivileges bool

	// ReadOnlyRoot, when set, restricts filesystem writes to the paths
	// listed in WriteAllowlist; everything else is treated as read-only.
	ReadOnlyRoot   bool
	WriteAllowlist []string

	// UnixSocketOnlyNetwork restricts outbound networking to AF_UNIX,
	// denying AF_INET/AF_INET6 connections entirely. Enforced by the
	// network namespace or seccomp filter the sandbox pool installs
	// before exec; ApplyOS only asserts the precondition.
	UnixSocketOnlyNetwork bool
}

// OSSandboxSupported reports whether this platform can enforce OSConfig.
// Only Linux exposes the prctl/namespace primitives this package uses;
// everywhere else ApplyOS degrades to a no-op so callers keep working,
// unsandboxed, on macOS/Windows dev machines.
func OSSandboxSupported() bool {
	return runtime.GOOS == "linux"
}

// ApplyOS configures cmd to run under the requested isolation posture.
// On unsupported platforms it returns nil without changing cmd.
func ApplyOS(cmd *exec.Cmd, cfg OSConfig) error {
	if !OSSandboxSupported() {
		return nil
	}
	return applyOS(cmd, cfg)
}

// WriteAllowed reports whether path falls under one of cfg's allowed write
// roots. Tools that touch the filesystem (file write/edit) consult this in
// addition to whatever the kernel enforces on the child process, so the
// read-only-root policy holds even for in-process file access that never
// spawns a child.
func (cfg OSConfig) WriteAllowed(path string) bool {
	if !cfg.ReadOnlyRoot {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range cfg.WriteAllowlist {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
