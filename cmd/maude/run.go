// ABOUTME: Wires transport, RPC client, workflow, poller, config watcher, and a frontend
// ABOUTME: Long-running pieces run under one errgroup; the frontend exiting stops the rest

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/mauromedda/maude-go/internal/config"
	"github.com/mauromedda/maude-go/internal/console"
	"github.com/mauromedda/maude-go/internal/eventbus"
	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/log"
	"github.com/mauromedda/maude-go/internal/rpc"
	"github.com/mauromedda/maude-go/internal/status"
	"github.com/mauromedda/maude-go/internal/transport"
	"github.com/mauromedda/maude-go/internal/tui"
	"github.com/mauromedda/maude-go/internal/workflow"
)

// connectPollInterval is the retry interval of the --wait startup loop.
const connectPollInterval = 100 * time.Millisecond

// dial builds the RPC client for s. When wait is positive it first waits
// for the daemon to accept connections; failing that is not fatal.
func dial(ctx context.Context, s *config.Settings, cwd string, wait time.Duration) (*rpc.Client, error) {
	opts := s.TransportOptions(cwd)
	tr, err := transport.New(opts)
	if err != nil {
		return nil, err
	}
	endpoint := transport.Describe(opts)
	log.Info("governor endpoint %s", endpoint)

	if wait > 0 {
		if err := transport.WaitConnect(ctx, tr, endpoint, wait, connectPollInterval); err != nil {
			log.Warn("governor not reachable after %s: %v", wait, err)
		}
	}

	unrouted := eventbus.New[rpc.Notification]()
	rlog := log.Named("rpc")
	unrouted.Subscribe(func(n rpc.Notification) {
		rlog.Debugw("unrouted notification", "method", n.Method)
	})
	return rpc.New(tr, rpc.WithLogger(rlog), rpc.WithUnrouted(unrouted)), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runInteractive(ctx context.Context, flags *cliFlags) error {
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	s, err := flags.settings(cwd)
	if err != nil {
		return err
	}
	useTUI := !flags.lineMode && isTerminal(os.Stdin) && isTerminal(os.Stdout)
	if err := setupLogging(s, useTUI); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := dial(ctx, s, cwd, flags.wait)
	if err != nil {
		return err
	}
	defer rc.Close()

	gov := governor.NewClient(rc, s.ContextID)
	machine := workflow.New(gov)
	statuses := eventbus.New[status.Snapshot]()
	poller := status.New(gov,
		status.WithInterval(s.PollInterval),
		status.WithTimeout(min(s.CallTimeout, s.PollInterval)),
		status.WithBus(statuses),
	)

	watcher := watchConfig(flags, cwd, poller)
	if watcher != nil {
		defer watcher.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(gctx) })

	conOpts := []console.Option{
		console.WithModel(s.Model),
		console.WithCallTimeout(s.CallTimeout),
		console.WithGovernorMode(s.GovernorMode),
	}
	label := s.DisplayLabel(cwd)

	if useTUI {
		app := tui.NewApp(label, nil, nil)
		con := console.New(gov, machine, app, conOpts...)
		g.Go(func() error {
			defer cancel()
			return app.Run(gctx, con, statuses)
		})
	} else {
		width := 80
		if isTerminal(os.Stdout) {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
		}
		printer := tui.NewPrinter(os.Stdout, width)
		con := console.New(gov, machine, printer, conOpts...)
		g.Go(func() error {
			defer cancel()
			return tui.RunLines(gctx, con, printer, os.Stdin, statuses)
		})
	}

	return g.Wait()
}

// watchConfig reloads the poll interval and log level when the config
// file changes. It returns nil when nothing can be watched.
func watchConfig(flags *cliFlags, cwd string, poller *status.Poller) *config.Watcher {
	paths := config.GlobalConfigFiles()
	if flags.configPath != "" {
		paths = []string{flags.configPath}
	}

	w, err := config.NewWatcher(paths, func() {
		s, err := flags.settings(cwd)
		if err != nil {
			log.Warn("config reload: %v", err)
			return
		}
		if lvl, err := log.ParseLevel(s.LogLevel); err == nil {
			log.SetLevel(lvl)
		}
		poller.SetInterval(s.PollInterval)
		log.Info("config reloaded: poll interval %s, log level %s", s.PollInterval, s.LogLevel)
	})
	if err != nil {
		log.Debug("config watcher disabled: %v", err)
		return nil
	}
	w.Start()
	return w
}
