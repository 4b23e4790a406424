package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbeckers/freightsim-go/internal/adapters/persistence"
	"github.com/mbeckers/freightsim-go/internal/application/mapgen"
)

func main() {
	var (
		seed        int64
		nodes       int
		sites       int
		parkings    int
		gasStations int
		widthM      float64
		heightM     float64
		out         string
	)

	root := &cobra.Command{
		Use:   "mapgen",
		Short: "Generate a road network map document",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := mapgen.Config{
				Seed:            seed,
				NumNodes:        nodes,
				SiteCount:       sites,
				ParkingCount:    parkings,
				GasStationCount: gasStations,
				WidthM:          widthM,
				HeightM:         heightM,
			}
			g, err := mapgen.Generate(cfg)
			if err != nil {
				return err
			}
			raw, err := persistence.EncodeMap(persistence.ExportMap(g))
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Println(string(raw))
				return nil
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			log.Printf("wrote %s: %d nodes, %d edges", out, g.NodeCount(), g.EdgeCount())
			return nil
		},
	}
	root.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	root.Flags().IntVar(&nodes, "nodes", 30, "number of graph nodes")
	root.Flags().IntVar(&sites, "sites", 0, "number of sites (0 derives from nodes)")
	root.Flags().IntVar(&parkings, "parkings", 0, "number of parkings (0 derives from nodes)")
	root.Flags().IntVar(&gasStations, "gas-stations", 0, "number of gas stations (0 derives from nodes)")
	root.Flags().Float64Var(&widthM, "width-m", 0, "map width in meters (0 uses the default)")
	root.Flags().Float64Var(&heightM, "height-m", 0, "map height in meters (0 uses the default)")
	root.Flags().StringVar(&out, "out", "", "output file (default stdout)")

	if err := root.Execute(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}
