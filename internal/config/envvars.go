// ABOUTME: Environment variable layer and ${VAR} expansion in config string fields
// ABOUTME: GOVERNOR_* and MAUDE_* variables map onto Settings; unset vars become empty

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"
)

// Environment variables read by fromEnv.
const (
	EnvGovernorDir    = "GOVERNOR_DIR"
	EnvGovernorSocket = "GOVERNOR_SOCKET"
	EnvGovernorTCP    = "GOVERNOR_TCP"
	EnvGovernorWS     = "GOVERNOR_WS"
	EnvContextID      = "GOVERNOR_CONTEXT_ID"
	EnvGovernorMode   = "GOVERNOR_MODE"
	EnvLabel          = "MAUDE_LABEL"
	EnvModel          = "MAUDE_MODEL"
	EnvPollInterval   = "MAUDE_POLL_INTERVAL"
	EnvConnectTimeout = "MAUDE_CONNECT_TIMEOUT"
	EnvCallTimeout    = "MAUDE_CALL_TIMEOUT"
	EnvLogLevel       = "MAUDE_LOG_LEVEL"
	EnvLogFile        = "MAUDE_LOG_FILE"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// fromEnv reads the settings layer carried by environment variables.
func fromEnv(lookup func(string) (string, bool)) (*Settings, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	s := &Settings{
		GovernorDir:  get(EnvGovernorDir),
		SocketPath:   get(EnvGovernorSocket),
		TCPAddr:      get(EnvGovernorTCP),
		WebSocketURL: get(EnvGovernorWS),
		ContextID:    get(EnvContextID),
		GovernorMode: get(EnvGovernorMode),
		Label:        get(EnvLabel),
		Model:        get(EnvModel),
		LogLevel:     get(EnvLogLevel),
		LogFile:      get(EnvLogFile),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvPollInterval, &s.PollInterval},
		{EnvConnectTimeout, &s.ConnectTimeout},
		{EnvCallTimeout, &s.CallTimeout},
	}
	for _, d := range durations {
		raw := get(d.key)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid %s=%q: want a positive duration like 5s", d.key, raw)
		}
		*d.dst = v
	}
	return s, nil
}

// ResolveEnvVars expands ${VAR} patterns in string fields of Settings.
func ResolveEnvVars(s *Settings) {
	s.GovernorDir = expandEnv(s.GovernorDir)
	s.SocketPath = expandEnv(s.SocketPath)
	s.TCPAddr = expandEnv(s.TCPAddr)
	s.WebSocketURL = expandEnv(s.WebSocketURL)
	s.ContextID = expandEnv(s.ContextID)
	s.Label = expandEnv(s.Label)
	s.LogFile = expandEnv(s.LogFile)
}

// expandEnv replaces ${VAR} with os.Getenv(VAR). Unset vars become "".
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
