package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/infra/storage"
	"github.com/gustavorteuber/fortune-tiger-tdd/internal/play"
)

var (
	betFlag    string
	roundsFlag int
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Spin the reels",
	Long: `Spin the reels interactively. With --bet the given amount is played
--rounds times without prompting.`,
	RunE: runPlay,
}

func init() {
	addPlayFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&betFlag, "bet", "", "bet amount; skips the prompt")
	cmd.Flags().IntVar(&roundsFlag, "rounds", 1, "rounds to play with --bet")
}

func runPlay(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, _, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := stopApp(app); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	if betFlag != "" {
		bet, err := decimal.NewFromString(betFlag)
		if err != nil {
			return fmt.Errorf("invalid --bet %q: %w", betFlag, err)
		}
		for i := 0; i < roundsFlag; i++ {
			record, err := app.Play().Execute(ctx, bet)
			if err := reportPlayError(record, err); err != nil {
				return err
			}
			printRecord(record)
		}
		return nil
	}

	pterm.DefaultHeader.WithFullWidth().Println("🎲 Fortune Tiger 🎲")

	for {
		input, err := pterm.DefaultInteractiveTextInput.WithDefaultText("💰 Bet amount").Show()
		if err != nil {
			return err
		}
		pterm.Println()

		bet, err := decimal.NewFromString(strings.TrimSpace(input))
		if err != nil {
			pterm.Warning.Println("Please enter a valid bet amount.")
			continue
		}

		record, err := app.Play().Execute(ctx, bet)
		if errors.Is(err, play.ErrInvalidBet) {
			pterm.Warning.Println(err.Error())
			continue
		}
		if err := reportPlayError(record, err); err != nil {
			return err
		}

		printRecord(record)
		pterm.DefaultBox.
			WithTitle(pterm.LightYellow("|LATEST BLOCK|")).
			WithTitleTopCenter().
			Println(blockSummary(app.Ledger().Head()))

		again, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText("🎲 Play again?").
			WithDefaultValue(true).
			Show()
		if err != nil {
			return err
		}
		if !again || ctx.Err() != nil {
			pterm.Info.Println("Thanks for playing!")
			return nil
		}
	}
}

// reportPlayError lets a committed-but-unpersisted bet through with a
// warning and stops on anything else.
func reportPlayError(record *domain.BetRecord, err error) error {
	if err == nil {
		return nil
	}
	if record != nil && errors.Is(err, storage.ErrStoreWrite) {
		slog.Warn("Bet recorded but the ledger could not be saved", "error", err)
		pterm.Warning.Println("Ledger write failed; the chain is written again with the next block and on exit.")
		return nil
	}
	pterm.Error.Println(err.Error())
	return err
}

func printRecord(record *domain.BetRecord) {
	result := make([]string, len(record.Transaction.Result))
	for i, s := range record.Transaction.Result {
		result[i] = string(s)
	}

	pterm.Info.Printfln("🎰 Result: %s", strings.Join(result, " "))
	if record.Transaction.Winnings.IsPositive() {
		pterm.Success.Printfln("💰 Winnings: %s", record.Transaction.Winnings.StringFixed(2))
	} else {
		pterm.Info.Printfln("💰 Winnings: %s", record.Transaction.Winnings.StringFixed(2))
	}
}

func blockSummary(b domain.Block) string {
	return pterm.Sprintfln("Index:         %d", b.Index) +
		pterm.Sprintfln("Transactions:  %d", len(b.Transactions)) +
		pterm.Sprintfln("Previous hash: %s", short(b.PreviousHash)) +
		pterm.Sprintf("Hash:          %s", short(b.Hash))
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "…"
}
