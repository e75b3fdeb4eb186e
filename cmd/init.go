package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tinytune/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tinytune configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the media folder, port, sort order and watching, and writes the answers to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("Run `tinytune serve` to index %s and open http://localhost:%d\n", cfg.MediaDir, cfg.Port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
