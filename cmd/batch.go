package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/safetyscope/safetyscope-cli/internal/model"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Predict crime risk for a CSV of locations",
	Long:  "Reads visit rows from a CSV file (columns: date,hour,latitude,longitude,place,age,race,gender) and writes one JSON result per line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(batchInput)
		if err != nil {
			return eris.Wrap(err, "open input")
		}
		defer f.Close() //nolint:errcheck

		rows, err := readBatchRows(f)
		if err != nil {
			return err
		}

		out := os.Stdout
		if batchOutput != "" {
			out, err = os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "create output")
			}
			defer out.Close() //nolint:errcheck
		}

		outcomes := processBatch(ctx, rows, batchConcurrency, func(ctx context.Context, req model.Request) (*model.PredictionResult, error) {
			match := env.Resolver.Resolve(req.Latitude, req.Longitude)
			if !match.HasPrecinct() {
				return nil, eris.Errorf("location %.4f,%.4f is outside NYC precinct coverage", req.Latitude, req.Longitude)
			}
			req.Precinct = match.Precinct
			req.Borough = match.Borough

			result, err := env.Orchestrator.Predict(req)
			if err != nil {
				return nil, err
			}
			if env.Store != nil {
				if _, err := env.Store.CreatePrediction(ctx, req, result); err != nil {
					zap.L().Warn("record prediction failed", zap.Error(err))
				}
			}
			return result, nil
		})

		enc := json.NewEncoder(out)
		for _, o := range outcomes {
			if err := enc.Encode(o); err != nil {
				return eris.Wrap(err, "write output")
			}
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "input CSV file (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output JSONL file (default stdout)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "max concurrent predictions")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// batchOutcome pairs an input row with its result or error.
type batchOutcome struct {
	Row    int                     `json:"row"`
	Result *model.PredictionResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// predictFunc is the callback signature for running one prediction.
type predictFunc func(ctx context.Context, req model.Request) (*model.PredictionResult, error)

// readBatchRows parses the CSV input. The header row names the columns:
// date,hour,latitude,longitude,place,age,race,gender.
func readBatchRows(r io.Reader) ([]model.Request, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"latitude", "longitude"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("batch: missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []model.Request
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read line %d", line)
		}

		req := model.Request{
			Date:   time.Now(),
			Hour:   12,
			Place:  field(record, "place"),
			Race:   field(record, "race"),
			Gender: field(record, "gender"),
		}
		if v := field(record, "date"); v != "" {
			req.Date, err = time.Parse("2006-01-02", v)
			if err != nil {
				return nil, eris.Wrapf(err, "batch: line %d: parse date %q", line, v)
			}
		}
		if v := field(record, "hour"); v != "" {
			req.Hour, err = strconv.Atoi(v)
			if err != nil {
				return nil, eris.Wrapf(err, "batch: line %d: parse hour %q", line, v)
			}
		}
		req.Latitude, err = strconv.ParseFloat(field(record, "latitude"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: line %d: parse latitude", line)
		}
		req.Longitude, err = strconv.ParseFloat(field(record, "longitude"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: line %d: parse longitude", line)
		}
		if v := field(record, "age"); v != "" {
			req.Age, err = strconv.Atoi(v)
			if err != nil {
				return nil, eris.Wrapf(err, "batch: line %d: parse age %q", line, v)
			}
		}

		rows = append(rows, req)
	}
	return rows, nil
}

// processBatch runs predictions concurrently and returns outcomes in input
// order. Individual failures are recorded, not fatal.
func processBatch(ctx context.Context, rows []model.Request, concurrency int, predict predictFunc) []batchOutcome {
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", concurrency),
	)

	outcomes := make([]batchOutcome, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, row := range rows {
		g.Go(func() error {
			result, err := predict(gctx, row)
			if err != nil {
				failed.Add(1)
				zap.L().Error("prediction failed", zap.Int("row", i+1), zap.Error(err))
				outcomes[i] = batchOutcome{Row: i + 1, Error: err.Error()}
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			outcomes[i] = batchOutcome{Row: i + 1, Result: result}
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return outcomes
}
