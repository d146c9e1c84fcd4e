package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
	"github.com/vogtb/go-spreadsheet/packages/xlsx"
)

func runEval(cmd *cobra.Command, cfg *settings, args []string) error {
	sheet, err := loadSheet(cfg)
	if err != nil {
		return err
	}

	value, err := sheet.Evaluate(foldInput(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), spreadsheet.Result{Value: value}.Display())
	return nil
}

func runSet(cmd *cobra.Command, cfg *settings, args []string) error {
	addr, err := parseCell(args[0])
	if err != nil {
		return err
	}
	text := ""
	if len(args) == 2 {
		text = foldInput(args[1])
	}

	sheet, err := loadSheet(cfg)
	if err != nil {
		return err
	}

	direct, err := sheet.Set(addr, text)
	if err != nil {
		return err
	}
	cfg.logger.Debug("cell updated", "cell", addr.String(), "direct_dependents", len(direct))

	results := sheet.Refresh(addr)
	out := cmd.OutOrStdout()
	printResult(out, addr, results[addr])
	for _, c := range sheet.Cascade(addr) {
		printResult(out, c, results[c])
	}

	return saveSheet(cfg, sheet)
}

func printResult(w io.Writer, addr spreadsheet.CellAddress, r spreadsheet.Result) {
	if r.Err != nil {
		fmt.Fprintf(w, "%s = %s\t%v\n", displayName(addr), r.Display(), r.Err)
		return
	}
	fmt.Fprintf(w, "%s = %s\n", displayName(addr), r.Display())
}

// maxShowCells bounds the rectangle show draws as a table
const maxShowCells = 10000

func runShow(cmd *cobra.Command, cfg *settings, args []string) error {
	formulas, err := cmd.Flags().GetBool("formulas")
	if err != nil {
		return fmt.Errorf("failed to read --formulas flag: %w", err)
	}

	sheet, err := loadSheet(cfg)
	if err != nil {
		return err
	}

	used, ok := sheet.Store().UsedRange()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "(empty grid)")
		return nil
	}

	var values map[spreadsheet.CellAddress]spreadsheet.Result
	if !formulas {
		values = sheet.Values()
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	store := sheet.Store()
	if store.Rows() > maxShowCells/store.Columns() {
		// too sparse to draw as a table
		for _, cell := range store.Cells() {
			text := cell.Text
			if !formulas {
				text = values[cell.Address].Display()
			}
			fmt.Fprintf(tw, "%s\t%s\n", displayName(cell.Address), text)
		}
		return tw.Flush()
	}

	bounds := used.GetBounds()

	header := []string{""}
	for col := uint64(bounds.StartColumn); col <= uint64(bounds.EndColumn); col++ {
		header = append(header, spreadsheet.EncodeColumn(uint32(col)))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	line := []string{}
	for cell := range used.Iterate() {
		if cell.Address.Column == bounds.StartColumn {
			line = []string{fmt.Sprint(cell.Address.Row)}
		}
		switch {
		case cell.Text == "":
			line = append(line, "")
		case formulas:
			line = append(line, cell.Text)
		default:
			line = append(line, values[cell.Address].Display())
		}
		if cell.Address.Column == bounds.EndColumn {
			fmt.Fprintln(tw, strings.Join(line, "\t"))
		}
	}
	return tw.Flush()
}

func runDeps(cmd *cobra.Command, cfg *settings, args []string) error {
	addr, err := parseCell(args[0])
	if err != nil {
		return err
	}
	sheet, err := loadSheet(cfg)
	if err != nil {
		return err
	}

	store := sheet.Store()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cell:        %s\n", displayName(addr))
	fmt.Fprintf(out, "text:        %q\n", store.GetCellText(addr))
	fmt.Fprintf(out, "references:  %s\n", joinAddresses(store.GetReferences(addr)))
	fmt.Fprintf(out, "dependents:  %s\n", joinAddresses(store.GetDependents(addr)))
	fmt.Fprintf(out, "cascade:     %s\n", joinAddresses(sheet.Cascade(addr)))
	return nil
}

func joinAddresses(addrs []spreadsheet.CellAddress) string {
	if len(addrs) == 0 {
		return "-"
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

func runExport(cmd *cobra.Command, cfg *settings, args []string) error {
	sheet, err := loadSheet(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	defer f.Close()

	if err := xlsx.Export(f, sheet, xlsx.WithLogger(cfg.logger)); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cells to %s\n", sheet.Store().Len(), args[0])
	return nil
}

func runImport(cmd *cobra.Command, cfg *settings, args []string) error {
	sheetName, err := cmd.Flags().GetString("sheet")
	if err != nil {
		return fmt.Errorf("failed to read --sheet flag: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	sheet := spreadsheet.NewSheet(spreadsheet.WithLogger(cfg.logger))
	report, err := xlsx.Import(f, sheet.Store(), sheetName, xlsx.WithLogger(cfg.logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d cells from sheet %q\n", report.Cells, report.Sheet)
	for _, name := range slices.Sorted(maps.Keys(report.Skipped)) {
		fmt.Fprintf(out, "  skipped %s: %s\n", name, report.Skipped[name])
	}
	return saveSheet(cfg, sheet)
}
