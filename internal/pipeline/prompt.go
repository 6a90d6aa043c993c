package pipeline

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/rcliao/podcaster/internal/config"
	"github.com/rcliao/podcaster/internal/llm"
	"github.com/rcliao/podcaster/internal/model"
)

// Host is a configured speaker as seen by prompt templates.
type Host struct {
	ID          int
	Label       string
	Name        string
	Voice       string
	Personality string
}

// promptData is the value every prompt template executes against.
type promptData struct {
	Content string
	Styles  config.StylesConfig
	Hosts   []Host
	Speaker Host
	History string
	Note    string
	Text    string
}

func render(name, text string, data promptData) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s prompt: %w", name, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return b.String(), nil
}

// buildPrompt renders both halves of a prompt and attaches the model settings.
func buildPrompt(name string, pc config.PromptConfig, mc config.ModelConfig, data promptData) (llm.Prompt, error) {
	system, err := render(name+".system", pc.System, data)
	if err != nil {
		return llm.Prompt{}, err
	}
	user, err := render(name+".user", pc.User, data)
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{
		System:      system,
		User:        user,
		Model:       mc.Model,
		Temperature: mc.Temperature,
		MaxTokens:   mc.MaxTokens,
	}, nil
}

// hosts returns the configured speakers in id order.
func hosts(cfg *config.Config) ([]Host, error) {
	ids, err := cfg.SpeakerIDs()
	if err != nil {
		return nil, err
	}
	out := make([]Host, 0, len(ids))
	for _, id := range ids {
		sc, _ := cfg.Speaker(id)
		out = append(out, Host{
			ID:          id,
			Label:       model.SpeakerLabel(id),
			Name:        sc.Name,
			Voice:       sc.Voice,
			Personality: sc.Personality,
		})
	}
	return out, nil
}
