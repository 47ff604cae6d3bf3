// Package main provides the tide prediction HTTP server.
package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"go.ngs.io/tidecalc/internal/adapter/store/csv"
	"go.ngs.io/tidecalc/internal/adapter/store/fes"
	"go.ngs.io/tidecalc/internal/adapter/store/file"
	"go.ngs.io/tidecalc/internal/config"
	httpHandler "go.ngs.io/tidecalc/internal/http"
	"go.ngs.io/tidecalc/internal/usecase"
)

const version = "0.2.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("tidecalc-server version %s\n", version)
		return
	}

	// Load configuration from environment.
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.InitializeLogging()

	log.Info().
		Str("env", cfg.Environment).
		Str("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Str("profile_dir", cfg.ProfileDir).
		Str("fes_dir", cfg.FESDir).
		Msg("starting tide server")

	// Station sources are tried in order: profile documents, then CSV tables.
	fileStore := file.NewProfileStore(cfg.ProfileDir)
	csvStore := csv.NewProfileStore(cfg.DataDir)
	fesStore := fes.NewStore(cfg.FESDir, fes.WithCacheSize(cfg.GridCacheSize))

	if ids, err := fesStore.AvailableConstituents(); err != nil {
		log.Warn().Err(err).Msg("FES grids unavailable; lat/lon requests will fail")
	} else {
		log.Info().Strs("constituents", ids).Msg("FES grids found")
	}

	predictionUC := usecase.NewPredictionUseCase(
		usecase.WithStationLoader("file", fileStore),
		usecase.WithStationLoader("csv", csvStore),
		usecase.WithLocationLoader(fesStore),
		usecase.WithProfileCacheSize(cfg.ProfileCacheSize),
		usecase.WithMaxSamples(cfg.MaxSamples),
	)

	router := httpHandler.SetupRouter(predictionUC, cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("addr", addr).Msg("server listening")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Tide Prediction Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  tidecalc-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  ENV                     local, development or production (default: production)")
	fmt.Println("  LOG_LEVEL               zerolog level (default: info)")
	fmt.Println("  DATA_DIR                CSV station profiles (default: ./data)")
	fmt.Println("  PROFILE_DIR             YAML/JSON/TOML station profiles (default: ./data/profiles)")
	fmt.Println("  FES_DIR                 FES NetCDF data directory (default: ./data/fes)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  GRID_CACHE_SIZE         Cached constituent grids (default: 32)")
	fmt.Println("  PROFILE_CACHE_SIZE      Cached station profiles (default: 128)")
	fmt.Println("  MAX_SAMPLES             Samples per request (default: 10000)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  tidecalc-server")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 tidecalc-server")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                    Health check")
	fmt.Println("  GET  /metrics                   Prometheus metrics")
	fmt.Println("  GET  /v1/constituents           List tidal constituents")
	fmt.Println("  GET  /v1/stations               List known stations")
	fmt.Println("  GET  /v1/tides/height           Height at one instant")
	fmt.Println("  GET  /v1/tides/predictions      Get tide predictions")
	fmt.Println("  POST /v1/tides/predictions      Predict with an inline profile")
	fmt.Println()
}
