package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/safetyscope/safetyscope-cli/internal/geo"
)

var (
	resolveLat float64
	resolveLon float64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve coordinates to an NYPD precinct and borough",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := geo.NewResolver(
			cfg.Geo.PrecinctShapefile, cfg.Geo.PrecinctField,
			cfg.Geo.BoroughShapefile, cfg.Geo.BoroughField,
		)
		if err != nil {
			return eris.Wrap(err, "load shapefiles")
		}

		match := resolver.Resolve(resolveLat, resolveLon)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(match)
	},
}

func init() {
	resolveCmd.Flags().Float64Var(&resolveLat, "lat", 0, "latitude (required)")
	resolveCmd.Flags().Float64Var(&resolveLon, "lon", 0, "longitude (required)")
	_ = resolveCmd.MarkFlagRequired("lat")
	_ = resolveCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(resolveCmd)
}
