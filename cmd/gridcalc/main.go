package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

const defaultGridPath = "grid.json"

// settings holds the persistent flags shared by every command
type settings struct {
	gridPath string
	logLevel string
	logger   *slog.Logger
}

func main() {
	cfg := &settings{}

	rootCmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Evaluate and edit a formula grid",
		Long: `gridcalc drives a grid of formula cells stored as a JSON document.

Cells are addressed as $<COLUMN>$<ROW> with zero-based rows ($A$0 is the
top-left cell) or as Excel names (A1). Formulas use + - * / % ** and the
functions inc() and dec(). Fullwidth input such as ＄Ａ＄０ is folded to
ASCII before it reaches the grid.

Examples:
  gridcalc set '$A$0' 5
  gridcalc set B1 'inc($A$0) ** 2'
  gridcalc show
  gridcalc export grid.xlsx`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cfg.logLevel)
			if err != nil {
				return err
			}
			cfg.logger = logger
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfg.gridPath, "grid", defaultGridPath, "Path of the JSON grid document")
	rootCmd.PersistentFlags().StringVar(&cfg.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")

	evalCmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate formula text against the grid",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runEval(cmd, cfg, args) },
	}

	setCmd := &cobra.Command{
		Use:   "set <cell> <text>",
		Short: "Store text in a cell, print the refreshed cascade and save",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  func(cmd *cobra.Command, args []string) error { return runSet(cmd, cfg, args) },
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the computed value of every cell",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runShow(cmd, cfg, args) },
	}
	showCmd.Flags().Bool("formulas", false, "Print raw cell text instead of values")

	depsCmd := &cobra.Command{
		Use:   "deps <cell>",
		Short: "Print references, dependents and the full cascade of a cell",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runDeps(cmd, cfg, args) },
	}

	exportCmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Write the grid to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runExport(cmd, cfg, args) },
	}

	importCmd := &cobra.Command{
		Use:   "import <in.xlsx>",
		Short: "Replace the grid with a worksheet from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runImport(cmd, cfg, args) },
	}
	importCmd.Flags().String("sheet", "", "Worksheet to read (default: the first one)")

	rootCmd.AddCommand(evalCmd, setCmd, showCmd, depsCmd, exportCmd, importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
