package cli

import (
	"context"
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/ledger"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every block is indexed, linked and hashed correctly",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, _, err := startApp(ctx)
	if err != nil {
		// Corrupt artifacts are caught here, before any block is checked.
		pterm.Error.Printfln("Ledger could not be loaded: %v", err)
		return err
	}
	defer stopApp(app)

	if err := app.Ledger().CheckIntegrity(); err != nil {
		var violation *ledger.InvariantViolation
		if errors.As(err, &violation) && violation.Index > 0 {
			pterm.Error.Printfln("Block %d: %s", violation.Index, violation.Reason)
		} else {
			pterm.Error.Println(err.Error())
		}
		return err
	}

	status := app.Ledger().Status()
	pterm.Success.Printfln("Chain valid: %d blocks, head %s (%s)", status.Height, short(status.HeadHash), status.Algorithm)
	return nil
}
