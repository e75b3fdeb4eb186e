package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tinytune/internal/zoom"
)

var zoomClient string

var zoomCmd = &cobra.Command{
	Use:   "zoom [in|out]",
	Short: "Show or change the stored zoom level of a browser",
	Long: `Without an action, prints the zoom level stored for the browser with the
given client id (the tinytune_client cookie). With "in" or "out", moves that
level one step and stores it; open pages pick the change up on reload.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"in", "out"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if zoomClient == "" {
			return fmt.Errorf("--client is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		prefs := zoom.NewSQLStore(database)
		current := zoom.Initial(ctx, prefs.ForClient(zoomClient))

		if len(args) == 0 {
			fmt.Printf("%s (%s)\n", current, current.Label())
			return nil
		}

		action, ok := zoom.ParseAction(args[0])
		if !ok {
			return fmt.Errorf("unknown zoom action %q, want in or out", args[0])
		}

		var persistErr error
		ctrl := zoom.Controller{
			Persister: zoom.PersisterFunc(func(ctx context.Context, level zoom.Level) error {
				persistErr = prefs.Set(ctx, zoomClient, level)
				return persistErr
			}),
			Reflector: zoom.ReflectorFunc(func(from, to zoom.Level) {
				fmt.Printf("%s -> %s\n", from.Class(), to.Class())
			}),
		}
		next := ctrl.Dispatch(ctx, current, action)
		if persistErr != nil {
			return fmt.Errorf("storing zoom level: %w", persistErr)
		}
		if next == current {
			fmt.Printf("already at %s, nothing to do\n", current.Label())
		}
		return nil
	},
}

func init() {
	zoomCmd.Flags().StringVar(&zoomClient, "client", "", "client id of the browser")
	rootCmd.AddCommand(zoomCmd)
}
