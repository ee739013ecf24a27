// ABOUTME: Deterministic governor socket path derivation from a governor directory
// ABOUTME: runtime_dir/governor-<sha256[:12]>.sock, matching the daemon's own algorithm

package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

const (
	socketPrefix  = "governor-"
	socketSuffix  = ".sock"
	socketHashLen = 12
)

// RuntimeDir returns $XDG_RUNTIME_DIR, or /tmp when unset.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return "/tmp"
}

// SocketPath derives the daemon socket path for governorDir under
// runtimeDir. governorDir is made absolute first so that relative and
// absolute spellings of the same directory agree.
func SocketPath(runtimeDir, governorDir string) string {
	abs, err := filepath.Abs(governorDir)
	if err == nil {
		governorDir = abs
	}
	if resolved, err := filepath.EvalSymlinks(governorDir); err == nil {
		governorDir = resolved
	}
	sum := sha256.Sum256([]byte(governorDir))
	name := socketPrefix + hex.EncodeToString(sum[:])[:socketHashLen] + socketSuffix
	return filepath.Join(runtimeDir, name)
}

// DefaultSocketPath derives the socket path under RuntimeDir.
func DefaultSocketPath(governorDir string) string {
	return SocketPath(RuntimeDir(), governorDir)
}
