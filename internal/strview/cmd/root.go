package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"strview/internal/scan"
	"strview/internal/strview/log"
	"strview/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "strview [file]",
	Short: "Terminal strings panel for binaries",
	Long: `Strview extracts the printable strings from an ELF binary and presents
them in an interactive panel with filtering, per-column sorting and
cross-reference lookup.`,
	Example: `
# Browse the strings of a shared library
strview /path/to/libgame.so

# Include the writable .data section and shorter strings
strview --data --min-len 2 /path/to/binary
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}

		program := tea.NewProgram(
			ui.NewPanel(absPath, scanOptions(cmd)),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

// scanOptions reads the scanner flags shared by the root and dump commands.
func scanOptions(cmd *cobra.Command) scan.Options {
	minLen, _ := cmd.Flags().GetInt("min-len")
	includeData, _ := cmd.Flags().GetBool("data")
	return scan.Options{MinLength: minLen, IncludeData: includeData}
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to a file instead of stderr")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().Int("min-len", scan.DefaultMinLength, "Minimum string length in characters")
	rootCmd.Flags().Bool("data", false, "Also scan the writable .data section")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")

	rootCmd.AddCommand(dumpCmd)
}

func Execute() {
	debug := false
	for _, arg := range os.Args[1:] {
		if arg == "--debug" || arg == "-d" {
			debug = true
			break
		}
	}
	logFile := ""
	for i, arg := range os.Args[1:] {
		if arg == "--log-file" && i+2 < len(os.Args) {
			logFile = os.Args[i+2]
			break
		}
	}
	log.Setup(logFile, debug)

	// Bypass fang's markdown rendering when output is piped so dump stays
	// machine-readable.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
