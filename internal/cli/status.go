package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger and backend health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, cfg, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer stopApp(app)

	report := app.Health(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintf(w, "status\t%s\n", report.SystemStatus)
	_, _ = fmt.Fprintf(w, "backend\t%s\n", cfg.Ledger.Backend)
	_, _ = fmt.Fprintf(w, "algorithm\t%s\n", report.Ledger.HashAlgorithm)
	_, _ = fmt.Fprintf(w, "height\t%d\n", report.Ledger.Height)
	_, _ = fmt.Fprintf(w, "persisted\t%d\n", report.Ledger.PersistedHeight)
	_, _ = fmt.Fprintf(w, "head\t%s\n", report.Ledger.HeadHash)
	if report.Ledger.LastWriteError != "" {
		_, _ = fmt.Fprintf(w, "last write error\t%s\n", report.Ledger.LastWriteError)
	}
	for name, c := range report.Components {
		_, _ = fmt.Fprintf(w, "%s\t%s %s\n", name, c.Status, c.Error)
	}
	return w.Flush()
}
