package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tinytune/internal/fit"
)

var (
	fitNatural   string
	fitContainer string
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Compute the display box of a preview strip",
	Long: `Prints the box a filmstrip of the given natural size gets inside a tile of
the given container size, and the right offset of its badge. Sizes are
written WIDTHxHEIGHT.`,
	Example: `  tinytune fit --natural 300x500 --container 200x150`,
	RunE: func(cmd *cobra.Command, args []string) error {
		natural, err := fit.ParseSize(fitNatural)
		if err != nil {
			return fmt.Errorf("--natural: %w", err)
		}
		container, err := fit.ParseSize(fitContainer)
		if err != nil {
			return fmt.Errorf("--container: %w", err)
		}
		if natural.Width <= 0 || natural.Height <= 0 || container.Width <= 0 || container.Height <= 0 {
			return fmt.Errorf("sizes must be positive")
		}

		r := fit.Compute(natural, container)
		fmt.Println(renderTable(
			[]string{"Frame", "Width", "Height", "Overlay right"},
			[][]string{{
				fmt.Sprintf("%gx%g", natural.Width, natural.Height/fit.FramesPerStrip),
				fmt.Sprintf("%gpx", r.Width),
				fmt.Sprintf("%gpx", r.Height),
				fmt.Sprintf("%gpx", r.OverlayRight),
			}},
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
		return nil
	},
}

func init() {
	fitCmd.Flags().StringVar(&fitNatural, "natural", "", "intrinsic size of the strip image, WIDTHxHEIGHT")
	fitCmd.Flags().StringVar(&fitContainer, "container", "", "size of the tile, WIDTHxHEIGHT")
	fitCmd.MarkFlagRequired("natural")
	fitCmd.MarkFlagRequired("container")
	rootCmd.AddCommand(fitCmd)
}
