package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

var (
	predictDate   string
	predictHour   int
	predictLat    float64
	predictLon    float64
	predictPlace  string
	predictAge    int
	predictRace   string
	predictGender string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict crime risk for a location and visit context",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		date := time.Now()
		if predictDate != "" {
			date, err = time.Parse("2006-01-02", predictDate)
			if err != nil {
				return eris.Wrapf(err, "parse date %q", predictDate)
			}
		}

		match := env.Resolver.Resolve(predictLat, predictLon)
		if !match.HasPrecinct() {
			return eris.Errorf("location %.4f,%.4f is outside NYC precinct coverage", predictLat, predictLon)
		}

		req := model.NewRequest(
			model.GeoPoint{Latitude: predictLat, Longitude: predictLon},
			model.VisitContext{Date: date, Hour: predictHour, Place: predictPlace},
			model.PersonProfile{Age: predictAge, Race: predictRace, Gender: predictGender},
		)
		req.Precinct = match.Precinct
		req.Borough = match.Borough

		result, err := env.Orchestrator.Predict(req)
		if err != nil {
			return eris.Wrap(err, "predict")
		}

		if env.Store != nil {
			if _, err := env.Store.CreatePrediction(ctx, req, result); err != nil {
				zap.L().Warn("record prediction failed", zap.Error(err))
			}
		}

		zap.L().Info("prediction complete",
			zap.String("precinct", match.Precinct),
			zap.String("borough", match.Borough),
			zap.String("status", string(result.Status)),
			zap.String("risk_level", string(result.RiskLevel)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictDate, "date", "", "visit date as YYYY-MM-DD (default today)")
	predictCmd.Flags().IntVar(&predictHour, "hour", 12, "hour of day, 0-23")
	predictCmd.Flags().Float64Var(&predictLat, "lat", 0, "latitude (required)")
	predictCmd.Flags().Float64Var(&predictLon, "lon", 0, "longitude (required)")
	predictCmd.Flags().StringVar(&predictPlace, "place", "", `place type ("In park", "In public housing", "In station")`)
	predictCmd.Flags().IntVar(&predictAge, "age", 0, "visitor age")
	predictCmd.Flags().StringVar(&predictRace, "race", "", "visitor race per NYPD complaint categories")
	predictCmd.Flags().StringVar(&predictGender, "gender", "", "visitor gender (Male, Female, Unknown)")
	_ = predictCmd.MarkFlagRequired("lat")
	_ = predictCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(predictCmd)
}
