package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"yagpt-bot/internal/models"
)

const (
	YandexCompletionURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"
	providerYandex      = "yandexgpt"
	maxResponseBytes    = 1 << 20
)

type YandexGPTConfig struct {
	APIKey      string
	FolderID    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// Endpoint overrides YandexCompletionURL, mainly for tests.
	Endpoint   string
	HTTPClient *http.Client
}

// YandexGPTService calls the foundation-models completion endpoint once per request.
type YandexGPTService struct {
	http        *http.Client
	endpoint    string
	apiKey      string
	modelURI    string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func NewYandexGPTService(cfg YandexGPTConfig) *YandexGPTService {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = YandexCompletionURL
	}
	model := strings.Trim(cfg.Model, "/")
	if model == "" {
		model = "yandexgpt/latest"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &YandexGPTService{
		http:        httpClient,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		modelURI:    fmt.Sprintf("gpt://%s/%s", cfg.FolderID, model),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
	}
}

func (s *YandexGPTService) ModelURI() string { return s.modelURI }

func (s *YandexGPTService) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	if len(turns) == 0 {
		return "", ErrEmptyConversation
	}

	body, err := json.Marshal(models.CompletionRequest{
		ModelURI: s.modelURI,
		CompletionOptions: models.CompletionOptions{
			Stream:      false,
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		},
		Messages: turns,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", transportError(providerYandex, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(providerYandex, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &CompletionError{
			Kind:       KindRemote,
			Provider:   providerYandex,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}

	return extractAlternative(raw, resp.StatusCode)
}

// extractAlternative pulls result.alternatives[0].message.text out of a response body.
func extractAlternative(raw []byte, status int) (string, error) {
	var parsed models.CompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &CompletionError{Kind: KindParse, Provider: providerYandex, StatusCode: status, Body: string(raw), Err: err}
	}
	if parsed.Result == nil || len(parsed.Result.Alternatives) == 0 {
		return "", &CompletionError{Kind: KindParse, Provider: providerYandex, StatusCode: status, Body: string(raw),
			Err: fmt.Errorf("response has no alternatives")}
	}
	msg := parsed.Result.Alternatives[0].Message
	if msg == nil || msg.Text == nil {
		return "", &CompletionError{Kind: KindParse, Provider: providerYandex, StatusCode: status, Body: string(raw),
			Err: fmt.Errorf("first alternative has no message text")}
	}
	return *msg.Text, nil
}
