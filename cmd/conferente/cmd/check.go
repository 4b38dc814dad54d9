package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <supplier> <product>",
	Short: "Compare a pair's tare against other suppliers of the product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		w, ok := a.CheckOtherSupplierTare(args[0], args[1])
		if !ok {
			fmt.Printf("%s %sno conflict%s\n", prefix, colorGreen, colorReset)
			return nil
		}
		fmt.Println(formatWarning(w))
		fmt.Printf("  %saccept with: conferente confirm %q %q %g%s\n", colorGray, args[0], args[1], w.Tare, colorReset)
		return nil
	},
}

var suggestCurrent string

var suggestCmd = &cobra.Command{
	Use:   "suggest <supplier> <product>",
	Short: "Decide whether to fill, warn about, or keep the tare",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current := 0.0
		if suggestCurrent != "" {
			v, err := parseKg(suggestCurrent)
			if err != nil {
				return err
			}
			current = v
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(formatSuggestion(a.Suggest(args[0], args[1], current)))
		return nil
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestCurrent, "current", "", "tare currently in the form (kg)")
}
