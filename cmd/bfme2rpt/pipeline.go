// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tarnhelm/bfme2rpt/model"
	"github.com/tarnhelm/bfme2rpt/pipelines/stages"
	"github.com/tarnhelm/bfme2rpt/renderer"
	"github.com/tarnhelm/bfme2rpt/web/auth"
	"github.com/tarnhelm/bfme2rpt/web/handlers"
	"gopkg.in/yaml.v3"
)

// pipelineConfig is the optional YAML configuration file. Flags given
// on the command line win over file values.
type pipelineConfig struct {
	DB         string `yaml:"db"`
	DataDir    string `yaml:"data_dir"`
	UsersFile  string `yaml:"users_file"`
	ServeAddr  string `yaml:"serve_addr"`
	ShowSpots  *bool  `yaml:"show_spots"`
	ShowColors *bool  `yaml:"show_colors"`
}

func loadPipelineConfig(path string) (*pipelineConfig, error) {
	var cfg pipelineConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func cmdPipeline() *cobra.Command {
	var configFile string
	var dbDSN string
	var dataDir string
	var usersFile string
	showDBStats := false
	showTiming := false
	var serve bool
	var serveAddr string
	var authAs string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVarP(&configFile, "config-file", "c", configFile, "load configuration from file")
		cmd.Flags().StringVar(&dbDSN, "db", "", "SQLite database file path (empty = in-memory)")
		cmd.Flags().StringVar(&dataDir, "data", "", "directory for ingested replay files")
		cmd.Flags().StringVar(&usersFile, "users", "", "load users from JSON file")
		cmd.Flags().BoolVar(&showDBStats, "show-db-stats", showDBStats, "dump row counts from each table")
		cmd.Flags().BoolVar(&showTiming, "show-timing", showTiming, "show timing for each stage")
		cmd.Flags().BoolVar(&serve, "serve", false, "start HTTP server after ingesting")
		cmd.Flags().StringVar(&serveAddr, "serve-addr", "", "HTTP server listen address")
		cmd.Flags().StringVar(&authAs, "auth-as", "", "auto-authenticate as handle for testing")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "pipeline [<replay-or-zip>...]",
		Short:        "ingest replays, decode them, and optionally serve the results",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			quiet, _ := cmd.Flags().GetBool("quiet")

			cfg, err := loadPipelineConfig(configFile)
			if err != nil {
				return err
			}
			if dbDSN == "" {
				dbDSN = cfg.DB
			}
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			if dataDir == "" {
				dataDir = "data"
			}
			if usersFile == "" {
				usersFile = cfg.UsersFile
			}
			if serveAddr == "" {
				serveAddr = cfg.ServeAddr
			}
			if serveAddr == "" {
				serveAddr = ":8787"
			}

			dsn := dbDSN
			if dsn == "" {
				dsn = ":memory:"
				log.Printf("store: using in-memory SQLite")
			} else {
				log.Printf("store: using file-based SQLite: %s", dsn)
			}
			store, err := model.NewStore(ctx, dsn)
			if err != nil {
				return fmt.Errorf("create store: %w", err)
			}
			defer store.Close()

			if usersFile != "" {
				if err := store.LoadUsersFromJSON(ctx, usersFile); err != nil {
					return fmt.Errorf("load users: %w", err)
				}
			}

			ingest := stages.NewIngestService(store, dataDir)
			worker := stages.NewWorkerService(store, dataDir, "")

			if len(args) > 0 {
				var files []stages.IngestRequest
				for _, input := range args {
					data, err := os.ReadFile(input)
					if err != nil {
						return err
					}
					files = append(files, stages.IngestRequest{Filename: input, Data: data})
				}

				startedStage := time.Now()
				batchID, results, err := ingest.IngestBatch(ctx, "cli", files)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				if showTiming {
					log.Printf("batch %d: ingested %d files in %v\n", batchID, len(results), time.Since(startedStage))
				}

				startedStage = time.Now()
				decoded, failed := 0, 0
				for {
					processed, err := worker.ProcessJob(ctx, model.WorkStageDecode)
					if !processed {
						if err != nil {
							return fmt.Errorf("decode worker: %w", err)
						}
						break
					}
					if err != nil {
						failed++
						if !quiet {
							log.Printf("decode: %v\n", err)
						}
						continue
					}
					decoded++
				}
				log.Printf("batch %d: decoded %d, failed %d\n", batchID, decoded, failed)
				if showTiming {
					log.Printf("batch %d: decode stage completed in %v\n", batchID, time.Since(startedStage))
				}
			}

			if showDBStats {
				stats, err := store.TableStats(ctx)
				if err != nil {
					return fmt.Errorf("get table stats: %w", err)
				}
				log.Println("database stats:")
				tables := make([]string, 0, len(stats))
				for table := range stats {
					tables = append(tables, table)
				}
				sort.Strings(tables)
				for _, table := range tables {
					if stats[table] > 0 {
						log.Printf("  %-20s %d rows\n", table, stats[table])
					}
				}
			}

			if !serve {
				return nil
			}

			var opts []renderer.Option
			if cfg.ShowSpots != nil {
				opts = append(opts, renderer.WithSpots(*cfg.ShowSpots))
			}
			if cfg.ShowColors != nil {
				opts = append(opts, renderer.WithColors(*cfg.ShowColors))
			}
			r, err := renderer.New(opts...)
			if err != nil {
				return fmt.Errorf("create renderer: %w", err)
			}

			sessions := auth.NewSessionStore()
			h := handlers.New(store, sessions, ingest, worker, r)
			if authAs != "" {
				h.SetAutoAuth(authAs)
				log.Printf("auth: auto-authenticating as %s", authAs)
			}

			server := &http.Server{
				Addr:         serveAddr,
				Handler:      h.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

			go func() {
				log.Printf("server: listening on %s", serveAddr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("server: %v", err)
				}
			}()

			<-shutdown
			log.Printf("server: shutting down gracefully")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			log.Printf("server: stopped")

			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
