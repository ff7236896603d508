package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foundry/internal/version"
)

// Version returns the current version
func Version() string {
	return version.Get()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "foundry version %s\n", Version())
		},
	}
}
