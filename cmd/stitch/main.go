package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stitch/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Source instrumentation for program repair",
	Long:  `Stitch rewrites suspect fragments of C sources into trace-emitting wrappers and records the observation channel repair tooling consumes`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(instrumentCmd)
	rootCmd.AddCommand(candidatesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
