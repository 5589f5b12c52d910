package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/ddp/cmd/gen"
	"github.com/luma/ddp/internal/meta"
)

var rootCmd = &cobra.Command{
	Use:     "ddp",
	Short:   "A DDP client for talking to Meteor servers",
	Long:    `A DDP client for talking to Meteor servers`,
	Version: meta.Version,
}

func init() {
	rootCmd.AddCommand(WatchCmd)
	rootCmd.AddCommand(CallCmd)
	rootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
