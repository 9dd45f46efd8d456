// ABOUTME: Sync subcommand for the Charm KV store.
// ABOUTME: Pushes and pulls on demand and reports link and freshness status.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harper/notes/internal/config"
	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
)

var errNoCharm = errors.New("sync needs the charm store (set store: charm or pass --store charm)")

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync notes with the Charm server",
		Long: `Sync the Charm KV note store with its server.

Charm uses SSH key authentication, no passwords needed. With auto_sync on,
every change already syncs; this command forces a sync now.

Commands:
  status  - Show sync configuration and connection status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.charm == nil {
				return errNoCharm
			}
			if err := a.charm.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Synced"))
			return nil
		},
	}
	cmd.AddCommand(newSyncStatusCmd(a))
	return cmd
}

func newSyncStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		Long:  `Display Charm sync configuration and connection status.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.charm == nil {
				return errNoCharm
			}
			out := cmd.OutOrStdout()
			cfg := a.cfg.Charm

			fmt.Fprintln(out, "Charm Sync Status")
			fmt.Fprintln(out, strings.Repeat("-", 40))
			fmt.Fprintf(out, "Config:    %s\n", config.ConfigPath())
			fmt.Fprintf(out, "Host:      %s\n", cfg.Host)
			fmt.Fprintf(out, "Database:  %s\n", cfg.DBName)
			if cfg.AutoSync {
				fmt.Fprintf(out, "Auto-sync: %s\n", color.GreenString("enabled"))
			} else {
				fmt.Fprintf(out, "Auto-sync: %s\n", color.YellowString("disabled"))
			}

			if last := a.charm.LastSyncTime(); last.IsZero() {
				fmt.Fprintf(out, "Last sync: %s\n", color.YellowString("never"))
			} else {
				fmt.Fprintf(out, "Last sync: %s\n", last.Local().Format(time.DateTime))
			}
			if a.charm.IsStale() {
				fmt.Fprintf(out, "Freshness: %s\n", color.YellowString("stale"))
			}

			fmt.Fprintln(out)
			user, err := a.charm.User()
			if err != nil || user == nil {
				fmt.Fprintf(out, "Status:    %s\n", color.YellowString("not linked"))
				return nil
			}
			fmt.Fprintf(out, "User ID:   %s\n", user.CharmID)
			fmt.Fprintf(out, "Name:      %s\n", valueOrNone(user.Name))
			fmt.Fprintf(out, "Status:    %s\n", color.GreenString("connected"))
			return nil
		},
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return color.New(color.Faint).Sprint("(none)")
	}
	return s
}
