package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/conferente/internal/domain/advisor"
)

var askFlags entryFlags

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant about the weighing in progress",
	Example: `  conferente ask -s Acme -p Tomate -t 20 -g 21.9 --tare 1.2 "quanto falta?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := askFlags.entry(a)
		if err != nil {
			return err
		}

		answer, err := a.Ask(context.Background(), strings.Join(args, " "), e.Identification, e.Reading())
		if errors.Is(err, advisor.ErrUnavailable) {
			return fmt.Errorf("%w\n  → set ANTHROPIC_API_KEY in the environment or .env", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", prefix, answer)
		return nil
	},
}

func init() {
	askFlags.bind(askCmd)
}
