// Package config provides the configuration structure for podcaster.
//
// Configuration is read from a TOML file layered over built-in defaults,
// then overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables consulted by Load.
const (
	EnvConfig  = "PODCASTER_CONFIG"
	EnvDB      = "PODCASTER_DB"
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "podcaster.toml"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	DataDir  string `toml:"data_dir"`
	Scripts  string `toml:"scripts"`
	Audio    string `toml:"audio"`
	Episodes string `toml:"episodes"`
	Logs     string `toml:"logs"`
}

// StoreConfig selects the content store.
type StoreConfig struct {
	Driver string `toml:"driver"` // sqlite | postgres
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// Target returns the driver-specific connection target.
func (s StoreConfig) Target() string {
	if s.Driver == "postgres" {
		return s.DSN
	}
	return s.Path
}

// ModelConfig holds the settings of one text generation call.
type ModelConfig struct {
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// AudioModelConfig holds the settings of the speech synthesis call.
type AudioModelConfig struct {
	Model  string `toml:"model"`
	Format string `toml:"format"`
}

// ModelsConfig groups the models used by each stage.
type ModelsConfig struct {
	Digest       ModelConfig      `toml:"digest"`
	Script       ModelConfig      `toml:"script"`
	Screenwriter ModelConfig      `toml:"screenwriter"`
	Distill      ModelConfig      `toml:"distill"`
	Briefing     ModelConfig      `toml:"briefing"`
	Audio        AudioModelConfig `toml:"audio"`
}

// SpeakerConfig describes one host.
type SpeakerConfig struct {
	Name        string `toml:"name"`
	Voice       string `toml:"voice"`
	Personality string `toml:"personality"`
}

// StylesConfig holds the tone of each script section.
type StylesConfig struct {
	Intro   string `toml:"intro"`
	Content string `toml:"content"`
	Outro   string `toml:"outro"`
}

// PromptConfig is a system/user template pair. Templates use text/template
// syntax.
type PromptConfig struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

// PromptsConfig holds the prompt templates of each stage.
type PromptsConfig struct {
	Digest       PromptConfig `toml:"digest"`
	Script       PromptConfig `toml:"script"`
	Screenwriter PromptConfig `toml:"screenwriter"`
	Distill      PromptConfig `toml:"distill"`
	Briefing     PromptConfig `toml:"briefing"`
	Speech       PromptConfig `toml:"speech"`
}

// TimelineConfig holds the mastering settings.
type TimelineConfig struct {
	Strategy        string  `toml:"strategy"` // prepend-append | overlay
	PauseMinMs      int     `toml:"pause_min_ms"`
	PauseMaxMs      int     `toml:"pause_max_ms"`
	FadeMs          int     `toml:"fade_ms"`
	HeadroomDB      float64 `toml:"headroom_db"`
	IntroPath       string  `toml:"intro_path"`
	IntroStartMs    int     `toml:"intro_start_ms"`
	IntroEndMs      int     `toml:"intro_end_ms"`
	OutroPath       string  `toml:"outro_path"`
	OutroStartMs    int     `toml:"outro_start_ms"`
	OutroEndMs      int     `toml:"outro_end_ms"`
	AmbientPath     string  `toml:"ambient_path"`
	AmbientGainDB   float64 `toml:"ambient_gain_db"`
	MusicGainDB     float64 `toml:"music_gain_db"`
	OverlayWindowMs int     `toml:"overlay_window_ms"`
	FinalFadeOutMs  int     `toml:"final_fade_out_ms"`
	ExportFormat    string  `toml:"export_format"`
	Seed            int64   `toml:"seed"` // 0 seeds from the clock
}

// SourceConfig holds the article source and ingestion settings.
type SourceConfig struct {
	ListingURL  string   `toml:"listing_url"`
	Feeds       []string `toml:"feeds"`
	WindowDays  int      `toml:"window_days"`
	TimeZone    string   `toml:"time_zone"`
	DateLayout  string   `toml:"date_layout"`
	MaxPDFChars int      `toml:"max_pdf_chars"`
	ChunkSize   int      `toml:"chunk_size"`
	DigestItems int      `toml:"digest_items"`
	DigestChars int      `toml:"digest_chars"`
	Rewrite     bool     `toml:"rewrite"`
}

// OpenAIConfig holds the model service connection.
type OpenAIConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"-"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NATSConfig holds the object store used to publish episodes.
type NATSConfig struct {
	URL    string `toml:"url"`
	Bucket string `toml:"bucket"`
}

// Config is the root configuration structure.
type Config struct {
	Paths    PathsConfig              `toml:"paths"`
	Store    StoreConfig              `toml:"store"`
	Models   ModelsConfig             `toml:"models"`
	Speakers map[string]SpeakerConfig `toml:"speakers"`
	Styles   StylesConfig             `toml:"styles"`
	Prompts  PromptsConfig            `toml:"prompts"`
	Timeline TimelineConfig           `toml:"timeline"`
	Source   SourceConfig             `toml:"source"`
	OpenAI   OpenAIConfig             `toml:"openai"`
	NATS     NATSConfig               `toml:"nats"`

	// File is the path the configuration was read from, if any.
	File string `toml:"-"`
}

// Resolve picks the config file: the explicit path, then $PODCASTER_CONFIG,
// then ./podcaster.toml if it exists. An empty result means defaults only.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// Load reads the configuration at path over the defaults and applies
// environment overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.File = path
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		if c.Store.Driver == "postgres" {
			c.Store.DSN = v
		} else {
			c.Store.Path = v
		}
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.OpenAI.BaseURL = v
	}
}

// Validate checks the settings that later stages rely on.
func (c *Config) Validate() error {
	if _, err := c.SpeakerIDs(); err != nil {
		return err
	}
	if len(c.Speakers) == 0 {
		return fmt.Errorf("%w: no speakers configured", ErrInvalid)
	}
	if c.Source.ChunkSize <= 0 {
		return fmt.Errorf("%w: source.chunk_size must be positive", ErrInvalid)
	}
	if c.Timeline.PauseMinMs < 0 || c.Timeline.PauseMaxMs < c.Timeline.PauseMinMs {
		return fmt.Errorf("%w: timeline pause range [%d, %d]", ErrInvalid,
			c.Timeline.PauseMinMs, c.Timeline.PauseMaxMs)
	}
	switch c.Timeline.Strategy {
	case "prepend-append", "overlay":
	default:
		return fmt.Errorf("%w: timeline.strategy %q", ErrInvalid, c.Timeline.Strategy)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: store.driver %q", ErrInvalid, c.Store.Driver)
	}
	return nil
}

// SpeakerIDs returns the configured speaker ids in ascending order.
func (c *Config) SpeakerIDs() ([]int, error) {
	ids := make([]int, 0, len(c.Speakers))
	for k := range c.Speakers {
		id, err := strconv.Atoi(k)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: speaker key %q is not a positive number", ErrInvalid, k)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// Speaker returns the configuration of speaker id.
func (c *Config) Speaker(id int) (SpeakerConfig, bool) {
	s, ok := c.Speakers[strconv.Itoa(id)]
	return s, ok
}

// Dir joins a configured sub directory onto the data dir unless it is
// already absolute.
func (c *Config) Dir(sub string) string {
	if filepath.IsAbs(sub) || c.Paths.DataDir == "" {
		return sub
	}
	return filepath.Join(c.Paths.DataDir, sub)
}
