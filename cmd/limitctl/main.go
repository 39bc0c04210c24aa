// Command limitctl applies limit files to a rig from the terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/limit-importer/backend/internal/parser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	rigPath    string
	linkMode   string
	runLogPath string
	verbose    bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "limitctl",
	Short: "Match limit files to rig results and write them",
	Long: `limitctl loads a limit file, matches every entry to a result of the rig by
signal path, measurement and result name, and writes the upper and lower
limits. Entries and results left over can be paired by hand with
"limitctl reconcile".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				return fmt.Errorf("loading .env: %w", err)
			}
		}
		if rigPath == "" {
			rigPath = os.Getenv("LIMIT_RIG")
		}
		if runLogPath == "" {
			runLogPath = os.Getenv("LIMIT_RUNLOG")
		}

		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		atexit.Register(func() { _ = logger.Sync() })
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rigPath, "rig", "", "rig description (.xml or .yaml); defaults to $LIMIT_RIG")
	rootCmd.PersistentFlags().StringVar(&linkMode, "link", "capability", "linked channel detection: capability, sentinel or off")
	rootCmd.PersistentFlags().StringVar(&runLogPath, "runlog", "", "append the run log to this file; defaults to $LIMIT_RUNLOG")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(applyCmd, reconcileCmd, indexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var unpaired unpairedError
		var fileErr *parser.FileError
		switch {
		case errors.As(err, &unpaired):
			atexit.Exit(2)
		case errors.As(err, &fileErr):
			fmt.Fprintln(os.Stderr, "Limit file rejected:", err)
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
