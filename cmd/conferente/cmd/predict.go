package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict <supplier> [product]",
	Short: "Predict the next product or the tare for a pair",
	Long: "With only a supplier, prints the product last weighed for it and that product's tare.\n" +
		"With a product too, prints the tare remembered for the pair.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 2 {
			kg, ok := a.PredictTareForPair(args[0], args[1])
			if !ok {
				fmt.Printf("%s no tare known for %s / %s\n", prefix, args[0], args[1])
				return nil
			}
			fmt.Printf("%s %s\n", prefix, formatKg(kg))
			return nil
		}

		p, ok := a.PredictLastProduct(args[0])
		if !ok {
			fmt.Printf("%s nothing known for %s\n", prefix, args[0])
			return nil
		}
		fmt.Printf("%s %s%s%s  tare %s\n", prefix, colorBold, p.Product, colorReset, formatKg(p.Tare))
		return nil
	},
}
