package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safetyscope/safetyscope-cli/internal/model"
	"github.com/safetyscope/safetyscope-cli/internal/store"
)

var servePort int

// predictor runs the two-stage pipeline for one request.
type predictor interface {
	Predict(req model.Request) (*model.PredictionResult, error)
}

// regionResolver maps coordinates to precinct and borough.
type regionResolver interface {
	Resolve(lat, lon float64) model.AdministrativeMatch
}

// predictionStore records and lists served predictions.
type predictionStore interface {
	CreatePrediction(ctx context.Context, req model.Request, res *model.PredictionResult) (*model.PredictionRun, error)
	ListPredictions(ctx context.Context, filter store.RunFilter) ([]model.PredictionRun, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var st predictionStore
		if env.Store != nil {
			st = env.Store
		}
		mux := newServeMux(env.Orchestrator, env.Resolver, st, env.Registry.GateAvailable())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// predictRequest is the POST /predict body. Hour is a pointer so an absent
// hour can default to midday.
type predictRequest struct {
	Date      string   `json:"date"`
	Hour      *int     `json:"hour"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Place     string   `json:"place"`
	Age       int      `json:"age"`
	Race      string   `json:"race"`
	Gender    string   `json:"gender"`
}

func newServeMux(p predictor, resolver regionResolver, st predictionStore, gateAvailable bool) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"gate_available": gateAvailable,
		})
	})

	mux.HandleFunc("GET /resolve", func(w http.ResponseWriter, r *http.Request) {
		lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		if err != nil {
			http.Error(w, `{"error":"invalid lat"}`, http.StatusBadRequest)
			return
		}
		lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if err != nil {
			http.Error(w, `{"error":"invalid lon"}`, http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, resolver.Resolve(lat, lon))
	})

	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Latitude == nil || req.Longitude == nil {
			http.Error(w, `{"error":"latitude and longitude are required"}`, http.StatusBadRequest)
			return
		}

		date := time.Now()
		if req.Date != "" {
			var err error
			date, err = time.Parse("2006-01-02", req.Date)
			if err != nil {
				http.Error(w, `{"error":"invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
				return
			}
		}
		hour := 12
		if req.Hour != nil {
			hour = *req.Hour
		}

		match := resolver.Resolve(*req.Latitude, *req.Longitude)
		if !match.HasPrecinct() {
			http.Error(w, `{"error":"location outside NYC precinct coverage"}`, http.StatusUnprocessableEntity)
			return
		}

		modelReq := model.Request{
			Date:      date,
			Hour:      hour,
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Place:     req.Place,
			Race:      req.Race,
			Gender:    req.Gender,
			Precinct:  match.Precinct,
			Borough:   match.Borough,
			Age:       req.Age,
		}

		result, err := p.Predict(modelReq)
		if err != nil {
			zap.L().Error("prediction failed", zap.Error(err))
			http.Error(w, `{"error":"prediction failed"}`, http.StatusInternalServerError)
			return
		}

		if st != nil {
			if _, err := st.CreatePrediction(r.Context(), modelReq, result); err != nil {
				zap.L().Warn("record prediction failed", zap.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("GET /predictions", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			http.Error(w, `{"error":"prediction store unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		filter := store.RunFilter{Status: r.URL.Query().Get("status")}
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, `{"error":"invalid offset"}`, http.StatusBadRequest)
				return
			}
			filter.Offset = n
		}

		runs, err := st.ListPredictions(r.Context(), filter)
		if err != nil {
			zap.L().Error("list predictions failed", zap.Error(err))
			http.Error(w, `{"error":"list predictions failed"}`, http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []model.PredictionRun{}
		}

		writeJSON(w, http.StatusOK, runs)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
