package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-copilot/internal/app"
	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/infrastructure/cli/helpers"
)

// NewCaptureCommand creates the capture command
func NewCaptureCommand(container *app.Container) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture the selection in the foreground application",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := container.Capture.CaptureSnapshot(cmd.Context())
			if asJSON {
				return helpers.WriteJSON(cmd.OutOrStdout(), snapshot)
			}
			helpers.RenderSnapshot(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

// NewApplyCommand creates the apply command
func NewApplyCommand(container *app.Container) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "apply [text...]",
		Short: "Paste text into the foreground application",
		Long:  "Apply copies the text to the clipboard and pastes it. Replace pastes over the selection, insert moves to the end of the field first, copy only fills the clipboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := parseAction(mode)
			if err != nil {
				return err
			}
			text, err := textFromArgsOrStdin(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return errors.New(ErrTextRequired)
			}
			if !container.Output.ApplyOutput(cmd.Context(), text, action) {
				return fmt.Errorf("could not %s text; check accessibility permission", action)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied (%s).\n", action)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(domain.ActionReplace), "replace|insert|copy")
	return cmd
}

// NewRunCommand creates the run command, the main entry point
func NewRunCommand(container *app.Container) *cobra.Command {
	var (
		mode      string
		noContext bool
		input     string
		asJSON    bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <command...>",
		Short: "Run a command or slash command against the current selection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.CopilotService == nil {
				return errors.New(ErrCopilotServiceUnavailable)
			}
			action, err := parseAction(mode)
			if err != nil {
				return err
			}
			if input == "-" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				input = string(raw)
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			spinner := helpers.NewSpinner(os.Stderr)
			spinner.Start("Working...")
			resp, err := container.CopilotService.Run(domain.RunRequest{
				Context:    ctx,
				Command:    strings.Join(args, " "),
				Action:     action,
				UseContext: !noContext,
				Input:      input,
			})
			spinner.Stop()
			if err != nil {
				return err
			}

			if asJSON {
				if err := helpers.WriteJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				helpers.RenderRunResponse(cmd.OutOrStdout(), resp)
			}
			if resp.Entry != nil && resp.Entry.Status != domain.StatusSuccess {
				return fmt.Errorf("run %s: %s", resp.Entry.Status, resp.Entry.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.ActionReplace), "replace|insert|copy")
	cmd.Flags().BoolVar(&noContext, "no-context", false, "Do not capture the current selection")
	cmd.Flags().StringVar(&input, "input", "", "Use this text instead of the selection (- reads stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Cancel the run after this long")
	return cmd
}

func parseAction(mode string) (domain.CopilotAction, error) {
	action := domain.CopilotAction(strings.ToLower(strings.TrimSpace(mode)))
	if !action.Valid() {
		return "", fmt.Errorf("--mode must be replace|insert|copy, got %q", mode)
	}
	return action, nil
}

func textFromArgsOrStdin(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(raw), nil
}
