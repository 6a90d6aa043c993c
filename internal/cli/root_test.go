package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/podcaster/internal/config"
	"github.com/rcliao/podcaster/internal/source"
)

func TestBuildSource(t *testing.T) {
	cfg := config.Default()
	src, err := buildSource(cfg)
	require.NoError(t, err)
	assert.Nil(t, src, "nothing configured")

	cfg.Source.ListingURL = "https://news.example/"
	cfg.Source.Feeds = []string{"https://news.example/feed"}
	src, err = buildSource(cfg)
	require.NoError(t, err)
	multi, ok := src.(source.Multi)
	require.True(t, ok)
	require.Len(t, multi, 2)
	assert.IsType(t, &source.Listing{}, multi[0])
	assert.IsType(t, &source.Feed{}, multi[1])

	cfg.Source.TimeZone = "Nowhere/Special"
	_, err = buildSource(cfg)
	assert.Error(t, err)
}

func TestLLMConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAI.APIKey = "sk-test"
	lc := llmConfig(cfg)
	assert.Equal(t, "sk-test", lc.APIKey)
	assert.Equal(t, 120*time.Second, lc.Timeout)
	assert.Equal(t, "https://api.openai.com/v1", lc.BaseURL)
}
