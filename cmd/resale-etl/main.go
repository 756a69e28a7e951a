// Command resale-etl runs the HDB resale ingestion pipeline: paginated fetch
// from the public datastore API, change detection against prior snapshots,
// and transformation of raw snapshots into analysis-ready CSVs with quality
// reports.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sgproperty/resale-etl/internal/config"
	"github.com/sgproperty/resale-etl/internal/etl"
	"github.com/sgproperty/resale-etl/internal/transform"
	"github.com/sgproperty/resale-etl/internal/version"
	"github.com/sgproperty/resale-etl/pkg/blobstore"
	"github.com/sgproperty/resale-etl/pkg/datagov"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var storageDir string
	var verbose bool

	root := &cobra.Command{
		Use:           "resale-etl",
		Short:         "Batch ETL pipeline for HDB resale transaction data",
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (defaults are built in)")
	root.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Root directory of the local blob store (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRunCmd(&cfgPath, &storageDir, &verbose))
	root.AddCommand(newTransformCmd(&cfgPath, &storageDir, &verbose))
	return root
}

func loadEnvironment(cfgPath, storageDir string, verbose bool) (config.Config, *blobstore.FS, zerolog.Logger, error) {
	logger := newLogger(verbose)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, logger, err
	}
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}
	store, err := blobstore.NewFS(cfg.StorageDir)
	if err != nil {
		return config.Config{}, nil, logger, err
	}
	return cfg, store, logger, nil
}

func newRunCmd(cfgPath, storageDir *string, verbose *bool) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, gate, transform, and store the configured datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, logger, err := loadEnvironment(*cfgPath, *storageDir, *verbose)
			if err != nil {
				return err
			}

			client, err := datagov.NewClient(cfg.Fetch.BaseURL, datagov.Options{
				PageSize:        cfg.Fetch.PageSize,
				MinPageSize:     cfg.Fetch.MinPageSize,
				MaxRetries:      cfg.Fetch.MaxRetries,
				RetryBackoff:    cfg.Fetch.RetryBackoff.Std(),
				PolitenessDelay: cfg.Fetch.PolitenessDelay.Std(),
				RequestTimeout:  cfg.Fetch.RequestTimeout.Std(),
			}, logger)
			if err != nil {
				return err
			}

			runner := etl.Runner{
				Cfg:     cfg,
				Fetcher: client,
				Store:   store,
				Gate:    etl.Gate{Store: store, RawBucket: cfg.Buckets.Raw, Log: logger},
				Pipe:    transform.NewPipeline(cfg, logger),
				Log:     logger,
			}

			out := runner.Run(cmd.Context(), mode)
			if err := printJSON(out); err != nil {
				return err
			}
			if out.StatusCode != 200 || out.Summary.Errors > 0 {
				return fmt.Errorf("run finished with %d errors", out.Summary.Errors)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "all", "Dataset selection: all, historical, or incremental")
	return cmd
}

func newTransformCmd(cfgPath, storageDir *string, verbose *bool) *cobra.Command {
	var bucket string
	var key string
	var eventPath string

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform one raw snapshot object into cleaned output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, logger, err := loadEnvironment(*cfgPath, *storageDir, *verbose)
			if err != nil {
				return err
			}

			handler := etl.EventHandler{
				Cfg:   cfg,
				Store: store,
				Pipe:  transform.NewPipeline(cfg, logger),
				Log:   logger,
			}

			var payload []byte
			switch {
			case eventPath != "":
				payload, err = os.ReadFile(eventPath)
				if err != nil {
					return fmt.Errorf("read event file: %w", err)
				}
			case bucket != "" && key != "":
				payload = syntheticEvent(bucket, key)
			default:
				return fmt.Errorf("transform requires --event, or both --bucket and --key")
			}

			resp := handler.Handle(cmd.Context(), payload)
			if err := printJSON(resp); err != nil {
				return err
			}
			if resp.StatusCode != 200 {
				return fmt.Errorf("transform failed with status %d", resp.StatusCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket of the raw snapshot object")
	cmd.Flags().StringVar(&key, "key", "", "Key of the raw snapshot object")
	cmd.Flags().StringVar(&eventPath, "event", "", "Path to a JSON storage notification payload")
	return cmd
}

func syntheticEvent(bucket, key string) []byte {
	payload := map[string]any{
		"Records": []map[string]any{
			{"s3": map[string]any{
				"bucket": map[string]any{"name": bucket},
				"object": map[string]any{"key": key},
			}},
		},
	}
	b, _ := json.Marshal(payload)
	return b
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}
