package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-copilot/internal/app"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/infrastructure/cli/helpers"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage run history",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container.History == nil {
				return errors.New(ErrHistoryUnavailable)
			}
			return nil
		},
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryDeleteCommand(container),
		newHistoryClearCommand(container),
		newHistoryRetainCommand(container),
		newHistoryStatsCommand(container),
		newHistoryCommandsCommand(container),
	)
	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		status string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := filterEntries(container.History.Snapshot().Entries, domain.ExecutionStatus(status), limit)
			if asJSON {
				return helpers.WriteJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoHistoryRecorded)
				return nil
			}
			helpers.RenderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show (0 for all)")
	cmd.Flags().StringVar(&status, "status", "", "Only show success|error|cancelled entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one history entry in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, ok := container.History.Entry(args[0])
			if !ok {
				return fmt.Errorf("no history entry %s", args[0])
			}
			helpers.RenderEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}

// newHistoryDeleteCommand creates the 'history delete' subcommand
func newHistoryDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := container.History.DeleteEntry(args[0])
			if err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No entry %s.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(container *app.Container) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all entries and remembered commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !helpers.PromptForConfirmation(out, bufio.NewReader(cmd.InOrStdin()), "Clear all history?") {
				fmt.Fprintln(out, MsgCancelled)
				return nil
			}
			if err := container.History.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(out, MsgHistoryCleared)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// newHistoryRetainCommand creates the 'history retain' subcommand
func newHistoryRetainCommand(container *app.Container) *cobra.Command {
	var (
		days       int
		maxEntries int
		unbounded  bool
	)
	cmd := &cobra.Command{
		Use:   "retain",
		Short: "Show or update the retention policy",
		Long:  "Without flags, prints the current policy. --days and --max-entries bound history by age and count; --unbounded removes both bounds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flags := cmd.Flags()
			if !flags.Changed("days") && !flags.Changed("max-entries") && !unbounded {
				fmt.Fprintf(out, "Retention: %s\n", helpers.DescribePolicy(container.History.Snapshot().RetentionPolicy))
				return nil
			}

			policy := container.History.Snapshot().RetentionPolicy
			if unbounded {
				policy = domain.RetentionPolicy{}
			}
			if flags.Changed("days") {
				if days < 0 {
					return errors.New("--days must be >= 0")
				}
				policy.MaxAgeDays = &days
			}
			if flags.Changed("max-entries") {
				if maxEntries < 0 {
					return errors.New("--max-entries must be >= 0")
				}
				policy.MaxEntries = &maxEntries
			}

			stored, err := container.History.SetRetentionPolicy(policy)
			if err != nil {
				return fmt.Errorf("failed to update retention: %w", err)
			}
			fmt.Fprintf(out, "Retention: %s\n", helpers.DescribePolicy(stored))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", domain.DefaultHistoryRetainDays, "Keep entries newer than N days")
	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "Keep at most N entries")
	cmd.Flags().BoolVar(&unbounded, "unbounded", false, "Remove age and count bounds")
	return cmd
}

// newHistoryStatsCommand creates the 'history stats' subcommand
func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show success rate, token usage and top commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := container.History.Snapshot()
			if len(snapshot.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoHistoryRecorded)
				return nil
			}
			helpers.RenderStatistics(cmd.OutOrStdout(), helpers.AnalyzeHistory(snapshot, top), snapshot.RetentionPolicy)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", DefaultTopCommands, "Number of top commands to show")
	return cmd
}

// newHistoryCommandsCommand creates the 'history commands' subcommand
func newHistoryCommandsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List remembered commands, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCommands(cmd.OutOrStdout(), container.History.Snapshot().Commands)
		},
	}
}

func listCommands(out io.Writer, commands []string) error {
	if len(commands) == 0 {
		fmt.Fprintln(out, MsgNoCommands)
		return nil
	}
	for _, command := range commands {
		fmt.Fprintln(out, command)
	}
	return nil
}

func filterEntries(entries []domain.HistoryEntry, status domain.ExecutionStatus, limit int) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if status != "" && entry.Status != status {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
