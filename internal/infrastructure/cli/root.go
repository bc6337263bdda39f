package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-copilot/internal/app"
	"github.com/doeshing/shai-copilot/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose      bool
	SettingsPath string
	DataDir      string
}

// NewRootCmd wires the cobra root command. The returned cleanup releases
// stores and must be called once the command has run.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func(), error) {
	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:      opts.Verbose,
		SettingsPath: opts.SettingsPath,
		DataDir:      opts.DataDir,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := container.Close(); err != nil {
			container.Logger.Warn("shutdown", map[string]interface{}{"error": err.Error()})
		}
	}

	runCmd := commands.NewRunCommand(container)

	root := &cobra.Command{
		Use:   "shai-copilot [command...]",
		Short: "Selection-aware writing copilot for the desktop",
		Long: "shai-copilot captures the selected text in the foreground application, " +
			"runs a command or slash command on it and pastes the result back.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare slash commands are a shortcut for "run".
			if len(args) == 0 || !strings.HasPrefix(args[0], "/") {
				return cmd.Help()
			}
			runCmd.SetContext(cmd.Context())
			runCmd.SetIn(cmd.InOrStdin())
			runCmd.SetOut(cmd.OutOrStdout())
			return runCmd.RunE(runCmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		runCmd,
		commands.NewCaptureCommand(container),
		commands.NewApplyCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewSettingsCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, cleanup, nil
}
