package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultgraph/vaultgraph/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a vaultgraph config interactively",
	Long:  `Walks through vault location and view defaults, then writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists, remove it first or use --config", cfgFile)
		}
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s for vault %s\n", cfgFile, cfg.VaultDir)
		fmt.Println("Run `vaultgraph serve` to start the graph server.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
