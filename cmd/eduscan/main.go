package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"eduscan/internal/config"
	"eduscan/internal/digest"
	"eduscan/internal/pipeline"
	"eduscan/internal/server"
	"eduscan/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "eduscan",
	Short:   "AI-in-education news watcher",
	Long:    "eduscan polls RSS/Atom feeds for AI-in-education news, filters and deduplicates items, and appends them to a local store.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("eduscan", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/eduscan/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, keywords, and scoring weights.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Store: %s\n\n", db.Path())
		fmt.Printf("Items stored: %d\n", stats.TotalItems)
		fmt.Printf("Runs recorded: %d\n", stats.TotalRuns)

		if run, _ := db.LatestRun(); run != nil {
			fmt.Printf("\nLast run: %s\n", run.RanAt)
			fmt.Printf("  Feeds polled: %d\n", run.FeedsCount)
			fmt.Printf("  Entries found: %d\n", run.Found)
			fmt.Printf("  Rows appended: %d\n", run.Accepted)
		}
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll feeds and append new items to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		// The whole run is retried once; rows already appended before a
		// failure stay committed.
		result, err := runOnce(db)
		if err != nil {
			log.Printf("Run failed: %v", err)
			time.Sleep(2 * time.Second)
			result, err = runOnce(db)
			if err != nil {
				return fmt.Errorf("run failed after retry: %w", err)
			}
		}

		fmt.Println("\nRun complete:")
		fmt.Printf("  Feeds polled: %d (%d failed)\n", result.FeedsPolled, result.FeedErrors)
		fmt.Printf("  Entries found: %d\n", result.Found)
		fmt.Printf("  Rows appended: %d\n", result.Accepted)
		fmt.Printf("  Rejected: %d stale, %d excluded, %d low-score, %d duplicates\n",
			result.Stale, result.Excluded, result.LowScore, result.Duplicates)

		if len(result.Sources) > 0 {
			fmt.Println("\nNew rows by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

func runOnce(db *store.DB) (*pipeline.Result, error) {
	pipe, err := pipeline.New(cfg, db)
	if err != nil {
		return nil, err
	}

	result, err := pipe.Run()
	if err != nil {
		return nil, err
	}

	report := digest.Compose(cfg, result, time.Now())
	if err := db.InsertRun(result.FeedsPolled, result.Found, result.Accepted, report); err != nil {
		log.Printf("Failed to record run: %v", err)
	}
	return result, nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*store.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "eduscan.db")
	return store.Open(dbPath)
}
