// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command echovector is the CLI for the EchoVector service.
//
// Usage:
//
//	echovector serve --config config.yaml
//	echovector serve --embedder hash --storage ./data
//	echovector validate --config config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	echovector "github.com/kadirpekel/echovector"
	"github.com/kadirpekel/echovector/pkg/chunker"
	"github.com/kadirpekel/echovector/pkg/config"
	"github.com/kadirpekel/echovector/pkg/embedder"
	"github.com/kadirpekel/echovector/pkg/logger"
	"github.com/kadirpekel/echovector/pkg/metrics"
	"github.com/kadirpekel/echovector/pkg/parser"
	"github.com/kadirpekel/echovector/pkg/pipeline"
	"github.com/kadirpekel/echovector/pkg/query"
	"github.com/kadirpekel/echovector/pkg/server"
	"github.com/kadirpekel/echovector/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or custom)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(echovector.GetVersion().String())
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Host     string `help:"Host to bind." default:""`
	Port     int    `help:"Port to listen on." default:"0"`
	Embedder string `help:"Embedder provider (openai, ollama, hash)."`
	Model    string `help:"Embedder model name."`
	Storage  string `help:"Storage path (filesystem backend)." type:"path"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	// CLI flags override the config file.
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Embedder != "" {
		cfg.Embedder.Provider = c.Embedder
	}
	if c.Model != "" {
		cfg.Embedder.Model = c.Model
	}
	if c.Storage != "" {
		cfg.Storage.Backend = "fs"
		cfg.Storage.Path = c.Storage
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer emb.Close()

	objects, err := store.NewObjectStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open object store: %w", err)
	}
	defer objects.Close()
	artifacts := store.NewArtifactStore(objects)

	ch, err := chunker.NewFromConfig(cfg.Chunker)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	log := logger.GetLogger()

	ingestor, err := pipeline.New(parser.NewRegistry(), ch, emb, artifacts, m, log)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	querier := query.New(artifacts, emb, m, log)

	srv, err := server.New(cfg.Server, ingestor, querier, registry, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("EchoVector ready on http://%s\n", cfg.Server.Address())
	fmt.Printf("   Ingest:   POST http://%s/vectorstores\n", cfg.Server.Address())
	fmt.Printf("   Query:    POST http://%s/vectorstores/query\n", cfg.Server.Address())
	fmt.Printf("   Health:   GET  http://%s/healthz\n", cfg.Server.Address())
	fmt.Printf("   Metrics:  GET  http://%s/metrics\n", cfg.Server.Address())
	fmt.Printf("   Embedder: %s (%s, dim=%d)\n", cfg.Embedder.Provider, emb.Model(), emb.Dimension())
	fmt.Printf("   Storage:  %s (%s)\n", cfg.Storage.Backend, cfg.Storage.Path)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// ValidateCmd validates a configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for validate command")
	}
	if _, err := config.Load(cli.Config); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Printf("Configuration %s is valid\n", cli.Config)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded configuration", "path", path)
	return cfg, nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("echovector"),
		kong.Description("EchoVector - per-user content-addressed vector stores over your documents"),
		kong.UsageOnError(),
	)

	level, _ := logger.ParseLevel(cli.LogLevel)
	output := os.Stderr
	var cleanup func()
	if cli.LogFile != "" {
		file, done, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		output = file
		cleanup = done
	}
	logger.Init(level, output, cli.LogFormat)
	if cleanup != nil {
		defer cleanup()
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
