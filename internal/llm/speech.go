package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// OpenAISynthesizer requests spoken audio through the chat completions
// audio modality.
type OpenAISynthesizer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type speechMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type speechAudio struct {
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

type speechRequest struct {
	Model      string          `json:"model"`
	Modalities []string        `json:"modalities"`
	Audio      speechAudio     `json:"audio"`
	Messages   []speechMessage `json:"messages"`
}

type speechResponse struct {
	Choices []struct {
		Message struct {
			Audio *struct {
				Data       string `json:"data"`
				Transcript string `json:"transcript"`
			} `json:"audio"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAISynthesizer creates a synthesizer for the configured service.
func NewOpenAISynthesizer(cfg Config) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		baseURL: cfg.baseURL(),
		apiKey:  cfg.APIKey,
		client:  cfg.httpClient(),
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, r SpeechRequest) ([]byte, error) {
	format := r.Format
	if format == "" {
		format = "wav"
	}
	body, err := sonic.Marshal(speechRequest{
		Model:      r.Model,
		Modalities: []string{"text", "audio"},
		Audio:      speechAudio{Voice: r.Voice, Format: format},
		Messages: []speechMessage{
			{Role: "system", Content: r.System},
			{Role: "user", Content: r.User},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech error %d: %s", resp.StatusCode, string(data))
	}

	var result speechResponse
	if err := sonic.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode speech response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Audio == nil || result.Choices[0].Message.Audio.Data == "" {
		return nil, fmt.Errorf("speech response for voice %s: %w", r.Voice, ErrEmptyResponse)
	}
	audio, err := base64.StdEncoding.DecodeString(result.Choices[0].Message.Audio.Data)
	if err != nil {
		return nil, fmt.Errorf("decode speech audio: %w", err)
	}
	return audio, nil
}
