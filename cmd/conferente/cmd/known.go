package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var suppliersCmd = &cobra.Command{
	Use:   "suppliers",
	Short: "List known suppliers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNames(func(l lister) []string { return l.KnownSuppliers() })
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List known products across all suppliers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listNames(func(l lister) []string { return l.KnownProducts() })
	},
}

type lister interface {
	KnownSuppliers() []string
	KnownProducts() []string
}

func listNames(pick func(lister) []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range pick(a) {
		fmt.Println(name)
	}
	return nil
}
