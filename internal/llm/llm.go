// Package llm provides the text generation and speech synthesis
// capabilities backed by an OpenAI-compatible service.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when the service answers without content.
var ErrEmptyResponse = errors.New("empty model response")

// Prompt is one text generation request.
type Prompt struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// SpeechRequest is one speech synthesis request. System carries the
// speaker persona, history and delivery note; User carries the line to say.
type SpeechRequest struct {
	System string
	User   string
	Voice  string
	Format string
	Model  string
}

// Synthesizer turns a request into encoded audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, r SpeechRequest) ([]byte, error)
}

// Config holds the service connection shared by both clients.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return "https://api.openai.com/v1"
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Config) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
