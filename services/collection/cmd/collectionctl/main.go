// Command collectionctl inspects how collection slugs are interpreted and
// runs listings against a local seed catalog.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	outputJSON bool
	noColor    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "collectionctl",
		Short: "Inspect collection slugs and run listings offline",
		Long: `collectionctl explains how the collection service reads a slug and runs
listings against a JSON seed catalog without any external store.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newExplainCmd(), newQueryCmd(), newGenerateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
