package main

import (
	"fmt"
	"strings"

	"github.com/hificopy/formflow"
	"github.com/hificopy/formflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of formflow",
	Run: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("short"); !quiet {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "formflow version %s\n", strings.TrimSpace(formflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Print only the version line")
}
