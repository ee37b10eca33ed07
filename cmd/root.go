package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reinferio/saltfish/cmd/serve"
)

const (
	Version = "1.0.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "saltfish",
		Short: "dataset metadata and record-storage service",
		Long: fmt.Sprintf(`saltfish (v%s)

A dataset metadata and record-storage RPC service: clients register
datasets with a typed feature schema, append records to them, and list
or delete datasets. Mutating operations are published to a pub/sub
channel for downstream subscribers, such as the built-in summarizer.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of saltfish",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("saltfish v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
