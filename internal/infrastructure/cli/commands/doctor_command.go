package commands

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-copilot/internal/app"
	"github.com/doeshing/shai-copilot/internal/infrastructure/cli/helpers"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose automation prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctorDiagnostics(cmd, cmd.OutOrStdout(), container, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(cmd *cobra.Command, out io.Writer, container *app.Container, asJSON bool) error {
	if container.DoctorService == nil {
		return errors.New(ErrDoctorServiceUnavailable)
	}

	report := container.DoctorService.Run(cmd.Context())
	if asJSON {
		if err := helpers.WriteJSON(out, report); err != nil {
			return err
		}
	} else {
		helpers.RenderReport(out, report)
	}

	if report.HasErrors() {
		return errors.New("diagnostics found problems")
	}
	return nil
}
