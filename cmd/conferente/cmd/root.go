package cmd

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corey/conferente/internal/app"
	"github.com/corey/conferente/internal/config"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	flagConfig  string
	flagDB      string
	flagHistory string
	flagModel   string
	flagAddr    string
)

var rootCmd = &cobra.Command{
	Use:   "conferente",
	Short: "Adaptive tare memory for weighing checks",
	Long: "Learns the packaging tare of each supplier and product from confirmed weighings,\n" +
		"predicts it for the next entry, and warns when another supplier uses a different tare.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv()
	},
}

// projectRoot returns the nearest directory holding .conferente/, or cwd.
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return app.FindRoot(dir)
}

func resolveOptions() config.ResolveOptions {
	return config.ResolveOptions{
		ConfigPath: flagConfig,
		CLIDBPath:  flagDB,
		CLIHistory: flagHistory,
		CLIAddr:    flagAddr,
		CLIModel:   flagModel,
	}
}

// resolveProject resolves configuration with the project's default paths.
func resolveProject(paths *app.Paths) (config.ResolvedConfig, error) {
	opts := resolveOptions()
	opts.DefaultConfigPath = paths.Config
	opts.DefaultDBPath = paths.DB
	opts.DefaultSQLitePath = paths.HistorySQLite
	return config.ResolveConfig(opts)
}

// openApp opens the project's stores, explaining lock contention when a
// server already holds the database.
func openApp() (*app.App, error) {
	root := projectRoot()
	a, err := app.New(app.Config{ProjectRoot: root, Resolve: resolveOptions()})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("%s", diagnoseDBLock(root))
		}
		return nil, err
	}
	return a, nil
}

// parseKg accepts "0.15" and the comma form "0,15".
func parseKg(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: want kg, e.g. 0.15", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid weight %q: want a finite number of kg", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid weight %q: must not be negative", s)
	}
	return v, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default .conferente/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "learning database path")
	rootCmd.PersistentFlags().StringVar(&flagHistory, "history", "", "history driver: bbolt or sqlite")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "advisor model")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(suppliersCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
}
