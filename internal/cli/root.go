// Package cli implements the podcaster CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/config"
	"github.com/rcliao/podcaster/internal/llm"
	"github.com/rcliao/podcaster/internal/pipeline"
	"github.com/rcliao/podcaster/internal/source"
	"github.com/rcliao/podcaster/internal/store"
)

var (
	configPath string
	dbPath     string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "podcaster",
	Short: "Turn articles and documents into two-host podcast episodes",
	Long: "Scrape recent articles, digest or distill them, write a two-speaker script, " +
		"voice it turn by turn and master the result into one episode file.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $PODCASTER_CONFIG or ./podcaster.toml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path or DSN (default: $PODCASTER_DB or store.path)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(config.Resolve(configPath))
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		if cfg.Store.Driver == "postgres" {
			cfg.Store.DSN = dbPath
		} else {
			cfg.Store.Path = dbPath
		}
	}
	return cfg
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.Target())
}

func openLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.New(cfg.Dir(cfg.Paths.Logs), "podcaster.log")
	if err != nil {
		exitErr("open log", err)
	}
	return log
}

func llmConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
	}
}

// buildSource combines the configured listing page and feeds. It returns
// nil when neither is configured.
func buildSource(cfg *config.Config) (source.Source, error) {
	loc, err := time.LoadLocation(cfg.Source.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", cfg.Source.TimeZone, err)
	}
	client := source.NewClient(0)

	var multi source.Multi
	if cfg.Source.ListingURL != "" {
		multi = append(multi, source.NewListing(cfg.Source.ListingURL, cfg.Source.DateLayout, loc, client))
	}
	for _, feed := range cfg.Source.Feeds {
		multi = append(multi, source.NewFeed(feed, cfg.Source.DateLayout, loc, client))
	}
	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}

// env bundles what a pipeline command needs; close releases all of it.
type env struct {
	cfg   *config.Config
	store *store.SQLStore
	log   *logger.Logger
	p     *pipeline.Pipeline
}

func (e *env) close() {
	e.store.Close()
	e.log.Close()
}

func openEnv(ctx context.Context) *env {
	cfg := loadConfig()
	s, err := openStore(ctx, cfg)
	if err != nil {
		exitErr("open store", err)
	}
	log := openLogger(cfg)

	src, err := buildSource(cfg)
	if err != nil {
		exitErr("source", err)
	}
	deps := pipeline.Deps{
		Config:      cfg,
		Store:       s,
		Generator:   llm.NewOpenAIGenerator(llmConfig(cfg)),
		Synthesizer: llm.NewOpenAISynthesizer(llmConfig(cfg)),
		Source:      src,
		Log:         log,
	}
	p, err := pipeline.New(deps)
	if err != nil {
		exitErr("pipeline", err)
	}
	return &env{cfg: cfg, store: s, log: log, p: p}
}

// readInput returns the joined args, else piped stdin.
func readInput(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
