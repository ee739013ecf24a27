// ABOUTME: Settings loading: defaults, YAML/TOML config file, .env, environment, CLI overrides
// ABOUTME: Later layers override earlier ones field by field; zero values never override

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds the merged client configuration.
type Settings struct {
	GovernorDir    string        `yaml:"governor_dir,omitempty" toml:"governor_dir"`
	SocketPath     string        `yaml:"socket,omitempty" toml:"socket"`
	TCPAddr        string        `yaml:"tcp,omitempty" toml:"tcp"`
	WebSocketURL   string        `yaml:"websocket,omitempty" toml:"websocket"`
	ContextID      string        `yaml:"context_id,omitempty" toml:"context_id"`
	GovernorMode   string        `yaml:"governor_mode,omitempty" toml:"governor_mode"`
	Label          string        `yaml:"label,omitempty" toml:"label"`
	Model          string        `yaml:"model,omitempty" toml:"model"`
	PollInterval   time.Duration `yaml:"poll_interval,omitempty" toml:"poll_interval"`
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" toml:"connect_timeout"`
	CallTimeout    time.Duration `yaml:"call_timeout,omitempty" toml:"call_timeout"`
	LogLevel       string        `yaml:"log_level,omitempty" toml:"log_level"`
	LogFile        string        `yaml:"log_file,omitempty" toml:"log_file"`
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	return &Settings{
		ContextID:      "default",
		GovernorMode:   "code",
		PollInterval:   5 * time.Second,
		ConnectTimeout: 2 * time.Second,
		CallTimeout:    30 * time.Second,
		LogLevel:       "info",
	}
}

// Load builds Settings from defaults, the config file at path (or the first
// of GlobalConfigFiles when path is empty), cwd/.env, and the environment.
// A missing config file is not an error. CLI overrides are applied by the
// caller with Merge.
func Load(path, cwd string) (*Settings, error) {
	s := Defaults()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		file, err := loadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		s = Merge(s, file)
	}

	if cwd != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	env, err := fromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	s = Merge(s, env)

	ResolveEnvVars(s)
	return s, nil
}

func findConfigFile() string {
	for _, p := range GlobalConfigFiles() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadFile reads Settings from a YAML or TOML file, chosen by extension.
// Returns zero Settings if the file does not exist.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}

	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &s); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return &s, nil
}

// Merge returns base with every non-zero field of over applied.
func Merge(base, over *Settings) *Settings {
	if base == nil {
		base = &Settings{}
	}
	if over == nil {
		return base
	}

	result := *base
	setString(&result.GovernorDir, over.GovernorDir)
	setString(&result.SocketPath, over.SocketPath)
	setString(&result.TCPAddr, over.TCPAddr)
	setString(&result.WebSocketURL, over.WebSocketURL)
	setString(&result.ContextID, over.ContextID)
	setString(&result.GovernorMode, over.GovernorMode)
	setString(&result.Label, over.Label)
	setString(&result.Model, over.Model)
	setString(&result.LogLevel, over.LogLevel)
	setString(&result.LogFile, over.LogFile)
	setDuration(&result.PollInterval, over.PollInterval)
	setDuration(&result.ConnectTimeout, over.ConnectTimeout)
	setDuration(&result.CallTimeout, over.CallTimeout)
	return &result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
