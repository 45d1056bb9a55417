// Command mimic-ingest bulk-loads a persona corpus into the engine and
// persists the observed personas.
//
// Usage:
//
//	mimic-ingest -corpus samples.jsonl [-config mimic.yaml] [-no-save] [-debug]
//
// The corpus format is chosen by extension: .parquet files go through the
// arrow reader, everything else is treated as JSONL with one
// {"persona_id": ..., "sample": ...} object per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/XiaoConstantine/mimic-go/pkg/config"
	"github.com/XiaoConstantine/mimic-go/pkg/datasets"
	"github.com/XiaoConstantine/mimic-go/pkg/engine"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults to discovery)")
	corpusPath := flag.String("corpus", "", "Path to the corpus file (.jsonl or .parquet)")
	noSave := flag.Bool("no-save", false, "Skip persisting personas after ingest")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *corpusPath == "" {
		fmt.Fprintln(os.Stderr, "mimic-ingest: -corpus is required")
		flag.Usage()
		os.Exit(1)
	}

	logLevel := logging.INFO
	if *debug {
		logLevel = logging.DEBUG
	}
	output := logging.NewConsoleOutput(true, logging.WithColor(true))
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logLevel,
		Outputs:  []logging.Output{output},
	}))
	logger := logging.GetLogger()

	ctx := context.Background()
	if err := run(ctx, *configPath, *corpusPath, !*noSave); err != nil {
		logger.Error(ctx, "Ingest failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, corpusPath string, save bool) error {
	logger := logging.GetLogger()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	corpus, err := loadCorpus(ctx, corpusPath)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Loaded corpus %s: %d samples across %d personas",
		corpusPath, corpus.Len(), len(corpus.Personas()))

	eng, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	applied, err := eng.Drain(ctx, corpus.Source())
	if err != nil {
		return err
	}
	logger.Info(ctx, "Observed %d of %d samples", applied, corpus.Len())

	for _, id := range corpus.Personas() {
		entry, ok := eng.SwapActive(id)
		if !ok {
			logger.Warn(ctx, "Persona %s produced no usable samples", id)
			continue
		}
		logger.Info(ctx, "Persona %s: %d samples, hedging %.2f, phase %s",
			id, entry.Signature.SampleCount, entry.Signature.HedgingLevel, eng.Phase(id))
		if !save {
			continue
		}
		if err := eng.Save(ctx, id); err != nil {
			return err
		}
	}
	if save {
		logger.Info(ctx, "Personas persisted to %s backend", backendName(cfg))
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	opts := []config.ManagerOption{}
	if path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	manager, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	return manager.Get(), nil
}

func loadCorpus(ctx context.Context, path string) (*datasets.Corpus, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return datasets.LoadParquet(ctx, path)
	}
	return datasets.LoadJSONL(ctx, path)
}

func backendName(cfg *config.Config) string {
	if cfg.Storage.Backend == "" {
		return "file"
	}
	return cfg.Storage.Backend
}
