package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/safetyscope/safetyscope-cli/internal/geo"
	"github.com/safetyscope/safetyscope-cli/pkg/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <query>",
	Short: "Geocode a free-form place query and resolve its precinct",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client := geocode.NewClient(
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithRateLimit(cfg.Geocode.RatePerSec),
		)

		result, err := client.Search(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "geocode")
		}
		if !result.Matched {
			return eris.Errorf("no match for %q", args[0])
		}

		out := struct {
			Query       string  `json:"query"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			DisplayName string  `json:"display_name"`
			Precinct    string  `json:"precinct,omitempty"`
			Borough     string  `json:"borough,omitempty"`
		}{
			Query:       args[0],
			Latitude:    result.Latitude,
			Longitude:   result.Longitude,
			DisplayName: result.DisplayName,
		}

		// Precinct resolution is optional here: geocoding alone is still
		// useful when the shapefiles are not configured.
		resolver, err := geo.NewResolver(
			cfg.Geo.PrecinctShapefile, cfg.Geo.PrecinctField,
			cfg.Geo.BoroughShapefile, cfg.Geo.BoroughField,
		)
		if err == nil {
			match := resolver.Resolve(result.Latitude, result.Longitude)
			out.Precinct = match.Precinct
			out.Borough = match.Borough
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
