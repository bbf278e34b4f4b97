package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/absfs/convertfs/format/all"
)

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "List the supported file extensions",
	Long: `List every extension convertfs can read and write, one per line,
grouped by backend. Conversions are only possible within a group.`,
	Args: cobra.NoArgs,
	RunE: runExtensions,
}

func init() {
	rootCmd.AddCommand(extensionsCmd)
}

func runExtensions(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for i, b := range all.Backends() {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "# %s\n", b.Name())
		for _, ext := range b.Extensions() {
			fmt.Fprintln(out, ext)
		}
	}
	return nil
}
