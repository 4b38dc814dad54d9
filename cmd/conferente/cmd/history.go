package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	historyDays  int
	historyClear bool
	historyJSON  bool
	historyPrune bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded weighings, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		switch {
		case historyClear:
			if err := a.ClearHistory(); err != nil {
				return err
			}
			fmt.Printf("%s history cleared\n", prefix)
			return nil
		case historyPrune:
			n, err := a.PruneHistory()
			if err != nil {
				return err
			}
			fmt.Printf("%s removed %d record(s) past retention\n", prefix, n)
			return nil
		}

		records, err := a.Records(historyDays)
		if err != nil {
			return err
		}
		if historyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		if len(records) == 0 {
			fmt.Printf("%s no weighings recorded\n", prefix)
			return nil
		}
		fmt.Printf("%s %d weighing(s)\n", prefix, len(records))
		for _, r := range records {
			fmt.Println(formatRecord(r))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "only the last N days (0 = all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete every recorded weighing")
	historyCmd.Flags().BoolVar(&historyPrune, "prune", false, "delete weighings older than the retention window")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print records as JSON")
}
