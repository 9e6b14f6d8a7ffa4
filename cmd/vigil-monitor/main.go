// cmd/vigil-monitor is the entry point for running Vigil monitoring passes
// from the command line. It wires the SQLite storage backend (and optionally
// a PostgreSQL fragment store) through the engine and runs one pass to
// completion per invocation; scheduling is left to cron or the host system.
//
// Usage:
//
//	vigil-monitor -user u1 run            # silent monitoring pass
//	vigil-monitor -user u1 briefing       # pass plus composed daily briefing
//	vigil-monitor -user u1 analyze        # structured insights/alerts/recommendations
//	vigil-monitor -user u1 chat "hello"   # one companion conversation turn
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vigil-app/vigil/internal/config"
	"github.com/vigil-app/vigil/internal/engine"
	"github.com/vigil-app/vigil/internal/llm"
	"github.com/vigil-app/vigil/internal/storage"
	"github.com/vigil-app/vigil/internal/storage/postgres"
	"github.com/vigil-app/vigil/internal/storage/sqlite"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("vigil-monitor: ")
	log.SetFlags(log.LstdFlags)

	userID := flag.String("user", "", "user id to run for (required)")
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if *userID == "" || flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vigil-monitor -user <id> [-config file.yaml] run|briefing|analyze|chat <message>")
		os.Exit(2)
	}
	command := flag.Arg(0)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFromFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o700); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = store.Close() }()

	// The SQLite backend serves every store; a configured PostgreSQL DSN
	// swaps in pgvector for fragment search.
	var fragments storage.FragmentStore = store
	if cfg.Storage.Engine == "postgres" && cfg.Storage.PostgresDSN != "" {
		pg, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to open postgres fragment store: %v", err)
		}
		defer func() { _ = pg.Close() }()
		fragments = pg
	}

	providerCfg := cfg.ProviderConfig()
	completer, err := llm.NewChatCompleter(providerCfg)
	if err != nil {
		log.Fatalf("failed to create completion client: %v", err)
	}
	embedder, err := llm.NewEmbedder(providerCfg)
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}

	memory := engine.NewSemanticMemory(fragments, embedder)
	composer := engine.NewComposer(completer, memory, store, store, store)
	composer.SetTimeout(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
	monitor := engine.NewMonitor(store, store, store, store, store, composer, cfg.EngineDetection())

	settings := cfg.CompanionSettings()

	switch command {
	case "run":
		report, err := monitor.Run(ctx, *userID, engine.RunOptions{})
		if err != nil {
			log.Fatalf("monitoring run failed: %v", err)
		}
		printReport(report)
	case "briefing":
		report, err := monitor.Run(ctx, *userID, engine.RunOptions{
			ComposeBriefing: true,
			Settings:        settings,
		})
		if err != nil {
			log.Fatalf("monitoring run failed: %v", err)
		}
		printReport(report)
		fmt.Println()
		fmt.Println(report.Briefing)
	case "analyze":
		analysis := composer.Analyze(ctx, *userID, settings)
		out, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Println(string(out))
	case "chat":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: vigil-monitor -user <id> chat <message>")
			os.Exit(2)
		}
		fmt.Println(composer.Chat(ctx, *userID, flag.Arg(1), settings))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(2)
	}
}

func printReport(report *engine.RunReport) {
	fmt.Printf("anomalies=%d forecasts=%d cold=%d spikes=%d created=%d skipped=%d upserted=%d failures=%d\n",
		len(report.Anomalies), len(report.Forecasts), len(report.Cold), len(report.Spikes),
		report.InsightsCreated, report.InsightsSkipped, report.PatternsUpserted, report.PersistFailures)
}
