package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-copilot/internal/app"
	appconfig "github.com/doeshing/shai-copilot/internal/application/config"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/infrastructure/cli/helpers"
	"github.com/doeshing/shai-copilot/internal/infrastructure/config"
)

// NewSettingsCommand creates the settings command with all subcommands
func NewSettingsCommand(container *app.Container) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and manage settings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if container.Settings == nil {
				return errors.New(ErrSettingsUnavailable)
			}
			return nil
		},
	}

	settingsCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings as YAML",
			RunE: func(cmd *cobra.Command, args []string) error {
				raw, err := yaml.Marshal(container.Settings.Current())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), container.Settings.Path())
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the settings file on disk",
			RunE: func(cmd *cobra.Command, args []string) error {
				return validateSettingsFile(cmd, container.Settings.Path())
			},
		},
		newSettingsResetCommand(container),
		newSettingsWatchCommand(container),
	)
	return settingsCmd
}

func validateSettingsFile(cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	settings, err := config.Decode(raw)
	if err == nil {
		err = appconfig.Validate(settings)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", MsgSettingsValid, path)
	return nil
}

func newSettingsResetCommand(container *app.Container) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !helpers.PromptForConfirmation(out, bufio.NewReader(cmd.InOrStdin()), "Overwrite settings with defaults?") {
				fmt.Fprintln(out, MsgCancelled)
				return nil
			}
			if err := container.Settings.Reset(); err != nil {
				return fmt.Errorf("failed to reset settings: %w", err)
			}
			fmt.Fprintf(out, "Settings reset: %s\n", container.Settings.Path())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSettingsWatchCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload settings whenever the file changes (Ctrl+C to stop)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			unsubscribe := container.Settings.OnChanged(func(next domain.AppSettings) {
				state := "reloaded"
				if container.Settings.FellBack() {
					state = "invalid, defaults restored"
				}
				fmt.Fprintf(out, "settings %s (model %s, %d slash commands)\n", state, next.Model.ID, len(next.SlashCommands))
			})
			defer unsubscribe()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := container.WatchSettings(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "Watching %s\n", container.Settings.Path())
			<-ctx.Done()
			return nil
		},
	}
}
