package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	network    string
	rpcURL     string
)

var rootCmd = &cobra.Command{
	Use:           "studio",
	Short:         "Local Solana validator and account studio",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults only when empty)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")
	rootCmd.PersistentFlags().StringVarP(&network, "network", "n", "", "override network: mainnet, devnet, testnet, localnet, custom")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "RPC endpoint for localnet or custom networks")

	rootCmd.AddCommand(validatorCmd, accountsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
