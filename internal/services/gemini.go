package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"yagpt-bot/internal/models"
)

const providerGemini = "gemini"

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// GeminiService is the alternative completion backend built on the Gemini SDK.
type GeminiService struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
}

func NewGeminiService(ctx context.Context, cfg GeminiConfig) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiService{
		client:      client,
		modelName:   cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		timeout:     timeout,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

func (s *GeminiService) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	system, history, prompt, err := splitTurns(turns)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(s.temperature)
	if s.maxTokens > 0 {
		model.SetMaxOutputTokens(s.maxTokens)
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", &CompletionError{Kind: KindParse, Provider: providerGemini, Err: fmt.Errorf("response has no text candidates")}
	}
	return text, nil
}

// splitTurns folds system turns into one instruction, maps prior turns to chat
// history and returns the final turn as the prompt to send.
func splitTurns(turns []models.Turn) (string, []*genai.Content, string, error) {
	var system []string
	var rest []models.Turn
	for _, t := range turns {
		if t.Role == models.RoleSystem {
			system = append(system, t.Text)
			continue
		}
		rest = append(rest, t)
	}
	if len(rest) == 0 {
		return "", nil, "", ErrEmptyConversation
	}

	history := make([]*genai.Content, 0, len(rest)-1)
	for _, t := range rest[:len(rest)-1] {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}

	return strings.Join(system, "\n\n"), history, rest[len(rest)-1].Text, nil
}

func classifyGeminiError(err error) error {
	if isTimeout(err) {
		return &CompletionError{Kind: KindTimeout, Provider: providerGemini, Err: err}
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &CompletionError{Kind: KindParse, Provider: providerGemini, Err: err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &CompletionError{Kind: KindRemote, Provider: providerGemini, StatusCode: apiErr.Code, Body: apiErr.Message, Err: err}
	}
	return &CompletionError{Kind: KindRemote, Provider: providerGemini, Err: err}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
