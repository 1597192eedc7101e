package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	chatCompletionEndpoint = "/chat/completions"
	transcriptionEndpoint  = "/audio/transcriptions"

	// MinTranscriptChars is the shortest trimmed transcript accepted as real speech.
	MinTranscriptChars = 20
)

type OpenAIConfig struct {
	BaseURL            string
	APIKey             string
	Model              string
	TranscriptionModel string
	MaxTokens          int
	MinMediaBytes      int64
	Timeout            time.Duration
}

// OpenAIClient talks to an OpenAI-compatible HTTP API.
type OpenAIClient struct {
	cfg    OpenAIConfig
	client *http.Client
	logger zerolog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger zerolog.Logger) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = "whisper-1"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.MinMediaBytes <= 0 {
		cfg.MinMediaBytes = DefaultMinMediaBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OpenAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("service", "OpenAIClient").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

func (c *OpenAIClient) GenerateIdeas(ctx context.Context, req IdeaRequest) (IdeaResult, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	req.Count = min(req.Count, MaxIdeas)

	content, err := c.chat(ctx, ideasSystemPrompt, ideasPrompt(req), c.cfg.MaxTokens, ideasTemperature)
	if err != nil {
		if ctx.Err() != nil {
			return IdeaResult{}, ctx.Err()
		}
		c.logger.Error().Err(err).Str("topic", req.Topic).Msg("Idea generation failed, using fallback ideas")
		return IdeaResult{Ideas: FallbackIdeas(req.Topic, req.Count), Fallback: true}, nil
	}

	ideas, err := parseIdeas(content, req.Topic, req.Count)
	if err != nil {
		c.logger.Error().Err(err).Str("topic", req.Topic).Msg("Failed to parse engine ideas, using fallback ideas")
		return IdeaResult{Ideas: FallbackIdeas(req.Topic, req.Count), Fallback: true}, nil
	}
	padded := 0
	for _, idea := range ideas {
		if idea.Fallback {
			padded++
		}
	}
	if padded > 0 {
		c.logger.Warn().Int("padded", padded).Str("topic", req.Topic).Msg("Engine returned fewer ideas than requested, padded with fallback ideas")
	}
	c.logger.Debug().Int("count", len(ideas)).Str("topic", req.Topic).Msg("Engine returned ideas")
	return IdeaResult{Ideas: ideas}, nil
}

func (c *OpenAIClient) RepurposeForPlatform(ctx context.Context, req RepurposeRequest) (string, error) {
	content, err := c.chat(ctx, repurposeSystemPrompt, repurposePrompt(req), repurposeMaxTokens, repurposeTemperature)
	if err != nil {
		return "", fmt.Errorf("repurposing for %s: %w", req.Platform, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("repurposing for %s: %w", req.Platform, ErrEmptyResponse)
	}
	return content, nil
}

func (c *OpenAIClient) Transcribe(ctx context.Context, media []byte, filename string) (string, error) {
	if err := ValidateMedia(filename, int64(len(media)), c.cfg.MinMediaBytes); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return "", fmt.Errorf("writing media: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.TranscriptionModel); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("writing format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+transcriptionEndpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	var transcription struct {
		Text  string    `json:"text"`
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &transcription); err != nil {
		return "", fmt.Errorf("decoding transcription response: %w", err)
	}
	if transcription.Error != nil {
		return "", fmt.Errorf("transcription API error: %s", transcription.Error.Message)
	}

	text := strings.TrimSpace(transcription.Text)
	if utf8.RuneCountInString(text) < MinTranscriptChars {
		return "", fmt.Errorf("%w: %d characters", ErrTranscriptTooShort, utf8.RuneCountInString(text))
	}
	return text, nil
}

// ValidateAPIKey makes a one-token completion to confirm the key is accepted.
func (c *OpenAIClient) ValidateAPIKey(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if _, err := c.chat(ctx, "", "test", 1, 0); err != nil {
		return fmt.Errorf("validating API key: %w", err)
	}
	return nil
}

func (c *OpenAIClient) chat(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatCompletionEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("chat API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// do sends req and returns the body of a 2xx response.
func (c *OpenAIClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
