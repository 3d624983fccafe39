package cli

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chainJSON bool

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show every block in the ledger",
	RunE:  runChain,
}

func init() {
	chainCmd.Flags().BoolVar(&chainJSON, "json", false, "print the chain as JSON")
	rootCmd.AddCommand(chainCmd)
}

func runChain(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, _, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer stopApp(app)

	chain := app.Ledger().GetChain()

	if chainJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(chain)
	}

	data := pterm.TableData{{"INDEX", "TIME", "TXS", "PREVIOUS", "HASH"}}
	for _, b := range chain {
		data = append(data, []string{
			strconv.FormatUint(b.Index, 10),
			b.Timestamp.Format(time.RFC3339),
			strconv.Itoa(len(b.Transactions)),
			short(b.PreviousHash),
			short(b.Hash),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d blocks", len(chain))
	return nil
}
