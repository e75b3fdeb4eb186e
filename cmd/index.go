package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tinytune/internal/media"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the media folder and rebuild the index",
	Long:  `Walks the configured media folder, reads image sizes and preview strips, and replaces the stored index. A running server picks the new index up on its next request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		return runIndex(context.Background(), cfg, media.NewStore(database))
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
