package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	tetris "github.com/jauhararifin/tetris-engine"
	"github.com/jauhararifin/tetris-engine/internal/scorestore"
)

var (
	scoresMode  string
	scoresLimit int
)

func init() {
	scoresCmd.Flags().StringVar(&scoresMode, "mode", "", "leaderboard to show (default is game.mode)")
	scoresCmd.Flags().IntVar(&scoresLimit, "limit", scorestore.DefaultLimit, "number of entries to show")
	rootCmd.AddCommand(scoresCmd)
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := cfg.Game.Mode
		if scoresMode != "" {
			parsed, err := tetris.ParseMode(scoresMode)
			if err != nil {
				return err
			}
			mode = parsed
		}
		silence(cmd)

		store, err := scorestore.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		best, err := store.Best(cmd.Context(), mode)
		if err != nil {
			return err
		}
		entries, err := store.Leaderboard(cmd.Context(), mode, scoresLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Leaderboard for %s, best score %s\n\n", emph(mode), emph(humanize.Comma(int64(best))))
		if len(entries) == 0 {
			fmt.Fprintln(out, "No games yet.")
			return nil
		}
		printTable(out, []string{"#", "Name", "Score", "Lines", "Played"}, leaderboardRows(entries))
		return nil
	},
}

func leaderboardRows(entries []scorestore.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Name,
			humanize.Comma(int64(e.Score)),
			strconv.Itoa(e.Lines),
			humanize.Time(e.At),
		})
	}
	return rows
}

func printTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)

	table.SetHeader(header)
	table.SetHeaderLine(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(true)

	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("  ")
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("     ")

	table.AppendBulk(data)

	table.Render()
}
