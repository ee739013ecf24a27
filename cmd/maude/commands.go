// ABOUTME: One-shot subcommands: status (governor.now) and sessions (sessions.list)
// ABOUTME: Both connect, make a single call, print, and exit

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mauromedda/maude-go/internal/display"
	"github.com/mauromedda/maude-go/internal/governor"
	"github.com/mauromedda/maude-go/internal/status"
)

// withGovernor loads settings, connects, and runs fn with a governor client
// bounded by the call timeout.
func withGovernor(ctx context.Context, flags *cliFlags, fn func(ctx context.Context, gov *governor.Client) error) error {
	cwd, err := workingDir()
	if err != nil {
		return err
	}
	s, err := flags.settings(cwd)
	if err != nil {
		return err
	}
	if err := setupLogging(s, false); err != nil {
		return err
	}

	rc, err := dial(ctx, s, cwd, flags.wait)
	if err != nil {
		return err
	}
	defer rc.Close()

	ctx, cancel := context.WithTimeout(ctx, s.CallTimeout)
	defer cancel()
	return fn(ctx, governor.NewClient(rc, s.ContextID))
}

func newStatusCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the governor's current status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGovernor(cmd.Context(), flags, func(ctx context.Context, gov *governor.Client) error {
				now, err := gov.Now(ctx)
				if err != nil {
					return err
				}
				printNow(cmd.OutOrStdout(), now)
				return nil
			})
		},
	}
}

func printNow(w io.Writer, now governor.Now) {
	fmt.Fprintf(w, "status:  %s (%s)\n", now.Status, status.LevelFor(now.Status))
	fmt.Fprintf(w, "context: %s\n", now.ContextID)
	fmt.Fprintf(w, "mode:    %s\n", now.Mode)
	if now.Regime != "" {
		fmt.Fprintf(w, "regime:  %s\n", now.Regime)
	}
	if now.Sentence != "" {
		fmt.Fprintf(w, "why:     %s\n", now.Sentence)
	}
	if now.SuggestedAction != "" {
		fmt.Fprintf(w, "next:    %s\n", now.SuggestedAction)
	}
}

func newSessionsCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List the governor's stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGovernor(cmd.Context(), flags, func(ctx context.Context, gov *governor.Client) error {
				list, err := gov.ListSessions(ctx)
				if err != nil {
					return err
				}
				return printSessions(cmd.OutOrStdout(), list)
			})
		},
	}
}

func printSessions(w io.Writer, list []governor.SessionSummary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no sessions")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tMESSAGES\tUPDATED")
	for i, s := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i+1, s.ID, display.Truncate(s.Title, 40), s.MessageCount, s.UpdatedAt)
	}
	return tw.Flush()
}
