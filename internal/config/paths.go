// ABOUTME: Filesystem paths for maude configuration and governor socket discovery
// ABOUTME: Resolves ~/.maude/ config files, the governor directory, and the project label

package config

import (
	"os"
	"path/filepath"

	"github.com/mauromedda/maude-go/internal/transport"
)

const (
	globalDirName   = ".maude"
	governorDirName = ".governor"
)

// GlobalDir returns the user-global config directory (~/.maude/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// GlobalConfigFiles returns the candidate config files in lookup order.
func GlobalConfigFiles() []string {
	dir := GlobalDir()
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.toml"),
	}
}

// ResolveGovernorDir returns the governor directory: the configured one, else
// cwd/.governor when it exists and cwd is not itself a governor directory
// (it has no proposals.json), else cwd.
func (s *Settings) ResolveGovernorDir(cwd string) string {
	if s.GovernorDir != "" {
		return s.GovernorDir
	}
	candidate := filepath.Join(cwd, governorDirName)
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		if _, err := os.Stat(filepath.Join(cwd, "proposals.json")); os.IsNotExist(err) {
			return candidate
		}
	}
	return cwd
}

// ResolveSocket returns the explicit socket path or the one derived from
// the governor directory.
func (s *Settings) ResolveSocket(cwd string) string {
	if s.SocketPath != "" {
		return s.SocketPath
	}
	return transport.DefaultSocketPath(s.ResolveGovernorDir(cwd))
}

// TransportOptions maps the settings onto transport selection.
func (s *Settings) TransportOptions(cwd string) transport.Options {
	opts := transport.Options{
		TCPAddr:      s.TCPAddr,
		WebSocketURL: s.WebSocketURL,
		DialTimeout:  s.ConnectTimeout,
	}
	if opts.TCPAddr == "" && opts.WebSocketURL == "" {
		opts.SocketPath = s.ResolveSocket(cwd)
	}
	return opts
}

// DisplayLabel returns Label, or the project name derived from the
// governor directory.
func (s *Settings) DisplayLabel(cwd string) string {
	if s.Label != "" {
		return s.Label
	}
	return ProjectName(s.ResolveGovernorDir(cwd))
}

// ProjectName derives a project name from a governor directory:
// "/src/agent_gov/.governor" and "/src/agent_gov" both yield "agent_gov".
func ProjectName(governorDir string) string {
	if governorDir == "" {
		return ""
	}
	p := filepath.Clean(governorDir)
	if filepath.Base(p) == governorDirName {
		p = filepath.Dir(p)
	}
	return filepath.Base(p)
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
