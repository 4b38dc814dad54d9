package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn <supplier> <product> <tare-kg>",
	Short: "Remember the tare of a supplier's product",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(args, false)
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <supplier> <product> <tare-kg>",
	Short: "Accept a tare as the default for a supplier's product",
	Long:  "Accept a tare, usually one suggested from another supplier, as the default for this pair.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLearn(args, true)
	},
}

func runLearn(args []string, confirm bool) error {
	kg, err := parseKg(args[2])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if confirm {
		a.ConfirmTare(args[0], args[1], kg)
		fmt.Printf("%s tare %s confirmed as default for %s / %s\n", prefix, formatKg(kg), args[0], args[1])
		return nil
	}
	a.Learn(args[0], args[1], kg)
	fmt.Printf("%s learned %s for %s / %s\n", prefix, formatKg(kg), args[0], args[1])
	return nil
}
