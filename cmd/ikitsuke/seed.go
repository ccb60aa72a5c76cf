package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ikitsuke/internal/geo"
	"github.com/HendryAvila/ikitsuke/internal/server"
)

var (
	seedLat float64
	seedLng float64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create one note per point of interest near a coordinate",
	Long: `Query nearby cafes, parks, attractions, restaurants and galleries and create
a system note for each. Does nothing when the store already has notes.
Requires a Google Maps API key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := server.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("creating app: %w", err)
		}
		defer cleanup()

		res, err := a.SeedAt(cmd.Context(), geo.Point{Lat: seedLat, Lng: seedLng})
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Fprintln(cmd.OutOrStdout(), "Store already has notes; nothing seeded.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %d notes.\n", res.Created)
		return nil
	},
}

func init() {
	seedCmd.Flags().Float64Var(&seedLat, "lat", 0, "latitude of the origin")
	seedCmd.Flags().Float64Var(&seedLng, "lng", 0, "longitude of the origin")
	_ = seedCmd.MarkFlagRequired("lat")
	_ = seedCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(seedCmd)
}
