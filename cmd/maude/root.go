// ABOUTME: Root cobra command, persistent flags, and the layered settings they feed
// ABOUTME: Flags override config file, .env, and environment via config.Merge

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mauromedda/maude-go/internal/config"
	"github.com/mauromedda/maude-go/internal/log"
)

// cliFlags holds persistent flag values.
type cliFlags struct {
	configPath     string
	socket         string
	governorDir    string
	tcp            string
	ws             string
	contextID      string
	model          string
	logFile        string
	verbose        bool
	connectTimeout time.Duration
	wait           time.Duration
	lineMode       bool
}

// overrides converts set flags into a Settings layer.
func (f *cliFlags) overrides() *config.Settings {
	s := &config.Settings{
		SocketPath:     f.socket,
		GovernorDir:    f.governorDir,
		TCPAddr:        f.tcp,
		WebSocketURL:   f.ws,
		ContextID:      f.contextID,
		Model:          f.model,
		LogFile:        f.logFile,
		ConnectTimeout: f.connectTimeout,
	}
	if f.verbose {
		s.LogLevel = "debug"
	}
	return s
}

// settings loads the full settings stack for cwd.
func (f *cliFlags) settings(cwd string) (*config.Settings, error) {
	s, err := config.Load(f.configPath, cwd)
	if err != nil {
		return nil, err
	}
	return config.Merge(s, f.overrides()), nil
}

// setupLogging applies the log level and sink. interactive sends logs to a
// file by default so they stay off the terminal UI.
func setupLogging(s *config.Settings, interactive bool) error {
	lvl, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)

	path := s.LogFile
	if path == "" && interactive {
		path = filepath.Join(config.GlobalDir(), "maude.log")
	}
	if path == "" {
		return nil
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}
	return log.SetFile(path)
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "maude",
		Short: "Interactive console for a local governor daemon",
		Long: `maude talks JSON-RPC to the governor daemon of the current project.

Plan a spec, lock it, and build against it while the status bar tracks the
governor. Run without arguments for the interactive console.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.maude/config.yaml)")
	pf.StringVar(&flags.socket, "socket", "", "governor Unix socket path")
	pf.StringVar(&flags.governorDir, "governor-dir", "", "governor directory used to derive the socket path")
	pf.StringVar(&flags.tcp, "tcp", "", "connect over TCP to host:port instead of a Unix socket")
	pf.StringVar(&flags.ws, "ws", "", "connect over WebSocket to ws://host:port/path")
	pf.StringVar(&flags.contextID, "context-id", "", "governor context id")
	pf.StringVar(&flags.model, "model", "", "chat model name")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	pf.DurationVar(&flags.connectTimeout, "connect-timeout", 0, "dial timeout (default 2s)")
	pf.DurationVar(&flags.wait, "wait", 0, "wait up to this long for the daemon socket at startup")
	root.Flags().BoolVar(&flags.lineMode, "line", false, "line mode even when stdin is a terminal")

	root.AddCommand(
		newStatusCmd(flags),
		newSessionsCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "maude %s (%s) built %s\n", version, commit, date)
		},
	}
}

func workingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	return cwd, nil
}
