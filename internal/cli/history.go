package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent bets and totals",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of bets to show, 0 for all")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, cfg, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer stopApp(app)

	if cfg.Database.URL == "" && cfg.Redis.URL == "" {
		pterm.Warning.Println("No database or redis configured; bet history only covers this process.")
	}

	records, err := app.Bets().List(ctx, historyLimit)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"TIME", "BET", "RESULT", "WINNINGS", "BLOCK"}}
	for _, r := range records {
		result := make([]string, len(r.Transaction.Result))
		for i, s := range r.Transaction.Result {
			result[i] = string(s)
		}
		data = append(data, []string{
			r.Transaction.Timestamp.Format(time.RFC3339),
			r.Transaction.BetAmount.StringFixed(2),
			strings.Join(result, " "),
			r.Transaction.Winnings.StringFixed(2),
			strconv.FormatUint(r.BlockIndex, 10),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	summary, err := app.Bets().Summary(ctx)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Bets: %d  Wagered: %s  Won: %s  House net: %s",
		summary.Count,
		summary.Wagered.StringFixed(2),
		summary.Won.StringFixed(2),
		summary.Net().StringFixed(2),
	)
	return nil
}
