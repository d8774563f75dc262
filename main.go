package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"shoptrend-go/internal/app"
	"shoptrend-go/internal/config"
	"shoptrend-go/pkg/logger"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	var (
		configPath = flag.String("config", getEnvOrDefault("TRENDS_CONFIG", ""), "Configuration file path (env: TRENDS_CONFIG)")
		sourceURL  = flag.String("url", "", "Override the source page URL")
		top        = flag.Int("top", getEnvIntOrDefault("TRENDS_TOP", 20), "Number of records to print, 0 for all (env: TRENDS_TOP)")
		asJSON     = flag.Bool("json", false, "Print the snapshot as JSON")
		debug      = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		timeout    = flag.Duration("timeout", time.Minute, "Overall deadline for the run")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	cfg, err := config.NewManager().Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if *sourceURL != "" {
		cfg.Source.URL = *sourceURL
	}

	logConfig := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     "stderr",
		TimeFormat: cfg.Logger.TimeFormat,
	}
	if *debug || cfg.Server.Debug {
		logConfig.Level = "debug"
	}
	log := logger.Init(logConfig).WithField("component", "main")

	pipeline, err := app.BuildPipeline(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to build pipeline")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	snapshot, err := pipeline.Assembler.Assemble(ctx)
	if err != nil {
		log.WithError(err).Fatal("Assembly failed")
	}

	log.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"real":        snapshot.RealCount,
		"records":     snapshot.Len(),
		"duration":    time.Since(start).String(),
	}).Info("Snapshot assembled")

	limit := *top
	if limit <= 0 {
		limit = snapshot.Len()
	}
	records := snapshot.Top(limit)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			log.WithError(err).Fatal("Failed to encode snapshot")
		}
		return
	}

	fmt.Printf("\n=== Shopping Trends (%s) ===\n", snapshot.AssembledAt.Format(time.RFC3339))
	fmt.Printf("Source: %s\n", cfg.Source.URL)
	fmt.Printf("Extracted: %d, Filler: %d\n\n", snapshot.RealCount, snapshot.Len()-snapshot.RealCount)
	for _, r := range records {
		fmt.Printf("%3d  %-24s %6d  %s\n", r.Rank, r.Keyword, r.SearchCount, r.Category)
	}
}

func printUsage() {
	fmt.Println("shoptrend-go one-shot trend fetch")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./shoptrend [OPTIONS]")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -config string    Configuration file (env: TRENDS_CONFIG)")
	fmt.Println("    -url string       Source page URL override")
	fmt.Println("    -top int          Records to print, 0 for all (default: 20, env: TRENDS_TOP)")
	fmt.Println("    -json             Print records as JSON")
	fmt.Println("    -debug            Enable debug logging (env: DEBUG)")
	fmt.Println("    -timeout duration Overall deadline (default: 1m)")
	fmt.Println("    -help             Show this help message")
	fmt.Println("")
	fmt.Println("The HTTP server lives in cmd/server.")
}
