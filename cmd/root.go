package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tinytune",
	Short: "A tiny media server with a zoomable preview grid",
	Long: `tinytune indexes a folder of images and videos and serves it as a
browsable grid. Videos are previewed with filmstrip sidecars that are
fitted to the grid's zoom level, and the view follows changes on disk.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".tinytune.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
