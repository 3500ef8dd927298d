package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"strview/internal/elfx"
	"strview/internal/scan"
	"strview/internal/view"
)

// dumpEntry is the JSON shape of one string row.
type dumpEntry struct {
	Address string `json:"address"`
	Text    string `json:"text"`
	Kind    string `json:"kind"`
	Length  int    `json:"length"`
	Size    int    `json:"size"`
}

var sortColumns = map[string]view.Column{
	"address": view.ColAddress,
	"string":  view.ColText,
	"type":    view.ColKind,
	"length":  view.ColLength,
	"size":    view.ColSize,
}

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Print extracted strings and exit",
	Long: `Dump extracts strings non-interactively and writes them to stdout,
either as an aligned table or as JSON.`,
	Example: `
# Dump all strings as a table
strview dump /path/to/binary

# Longest strings first, as JSON
strview dump --sort length --desc --json /path/to/binary
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sortKey, _ := cmd.Flags().GetString("sort")
		column, ok := sortColumns[sortKey]
		if !ok {
			return fmt.Errorf("unknown sort column %q (address, string, type, length, size)", sortKey)
		}
		filter, _ := cmd.Flags().GetString("filter")
		descending, _ := cmd.Flags().GetBool("desc")
		asJSON, _ := cmd.Flags().GetBool("json")

		im, err := elfx.Open(args[0])
		if err != nil {
			return err
		}
		defer im.Close()

		store := view.NewStore()
		var scanErr error
		coord := view.NewCoordinator(store, scan.NewScanner(im, scanOptions(cmd)).Producer(),
			view.WithOnError(func(err error) { scanErr = err }),
		)
		coord.Refresh()
		coord.Wait()
		if scanErr != nil {
			return scanErr
		}
		slog.Debug("Scan complete", "strings", store.Len())

		rows := view.NewView(store)
		rows.SetFilter(filter)
		rows.SetSort(column, !descending)

		if asJSON {
			return writeJSON(rows)
		}
		return writeTable(rows)
	},
}

func writeJSON(rows *view.View) error {
	out := make([]dumpEntry, 0, rows.RowCount())
	for i := 0; i < rows.RowCount(); i++ {
		e, err := rows.RowAt(i)
		if err != nil {
			return err
		}
		out = append(out, dumpEntry{
			Address: e.AddressString(),
			Text:    strings.ToValidUTF8(e.Text, "�"),
			Kind:    e.Kind,
			Length:  e.Length,
			Size:    e.Size,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(rows *view.View) error {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tSTRING\tTYPE\tLENGTH\tSIZE")
	for i := 0; i < rows.RowCount(); i++ {
		e, err := rows.RowAt(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", e.AddressString(), e.Text, e.Kind, e.Length, e.Size)
	}
	return w.Flush()
}

func init() {
	dumpCmd.Flags().String("filter", "", "Case-insensitive substring filter")
	dumpCmd.Flags().String("sort", "address", "Sort column: address, string, type, length, size")
	dumpCmd.Flags().Bool("desc", false, "Sort descending")
	dumpCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	dumpCmd.Flags().Int("min-len", scan.DefaultMinLength, "Minimum string length in characters")
	dumpCmd.Flags().Bool("data", false, "Also scan the writable .data section")
}
