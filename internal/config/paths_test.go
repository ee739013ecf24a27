// ABOUTME: Tests for governor directory discovery, socket resolution, and project naming
// ABOUTME: Builds throwaway project trees under t.TempDir

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveGovernorDir(t *testing.T) {
	t.Parallel()

	withGov := t.TempDir()
	if err := os.Mkdir(filepath.Join(withGov, ".governor"), 0o700); err != nil {
		t.Fatal(err)
	}

	// A directory holding proposals.json is itself a governor dir.
	selfGov := t.TempDir()
	if err := os.Mkdir(filepath.Join(selfGov, ".governor"), 0o700); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(selfGov, "proposals.json"), "{}")

	plain := t.TempDir()

	tests := []struct {
		name string
		s    Settings
		cwd  string
		want string
	}{
		{"explicit wins", Settings{GovernorDir: "/explicit"}, withGov, "/explicit"},
		{"cwd/.governor", Settings{}, withGov, filepath.Join(withGov, ".governor")},
		{"proposals.json keeps cwd", Settings{}, selfGov, selfGov},
		{"fallback cwd", Settings{}, plain, plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.ResolveGovernorDir(tt.cwd); got != tt.want {
				t.Errorf("ResolveGovernorDir = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSocket(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/7")

	s := &Settings{SocketPath: "/tmp/explicit.sock"}
	if got := s.ResolveSocket("/anywhere"); got != "/tmp/explicit.sock" {
		t.Errorf("explicit socket = %q", got)
	}

	s = &Settings{GovernorDir: t.TempDir()}
	got := s.ResolveSocket("/anywhere")
	if !strings.HasPrefix(got, "/run/user/7/governor-") || !strings.HasSuffix(got, ".sock") {
		t.Errorf("derived socket = %q", got)
	}
}

func TestTransportOptions(t *testing.T) {
	t.Parallel()

	s := &Settings{TCPAddr: "127.0.0.1:7777"}
	opts := s.TransportOptions("/cwd")
	if opts.TCPAddr != "127.0.0.1:7777" || opts.SocketPath != "" {
		t.Errorf("tcp opts = %+v", opts)
	}

	s = &Settings{SocketPath: "/run/gov.sock"}
	opts = s.TransportOptions("/cwd")
	if opts.SocketPath != "/run/gov.sock" {
		t.Errorf("unix opts = %+v", opts)
	}
}

func TestProjectName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir  string
		want string
	}{
		{"/home/dev/git/agent_gov/.governor", "agent_gov"},
		{"/home/dev/git/agent_gov", "agent_gov"},
		{"/home/dev/git/agent_gov/", "agent_gov"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ProjectName(tt.dir); got != tt.want {
			t.Errorf("ProjectName(%q) = %q; want %q", tt.dir, got, tt.want)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	t.Parallel()

	s := &Settings{Label: "custom", GovernorDir: "/src/app/.governor"}
	if got := s.DisplayLabel("/cwd"); got != "custom" {
		t.Errorf("DisplayLabel = %q; want custom", got)
	}
	s.Label = ""
	if got := s.DisplayLabel("/cwd"); got != "app" {
		t.Errorf("DisplayLabel = %q; want app", got)
	}
}
