package models

// CompletionRequest is the YandexGPT foundation-models completion body.
type CompletionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions CompletionOptions `json:"completionOptions"`
	Messages          []Turn            `json:"messages"`
}

type CompletionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// CompletionResponse keeps pointers so a missing field can be told apart from an empty one.
type CompletionResponse struct {
	Result *CompletionResult `json:"result"`
}

type CompletionResult struct {
	Alternatives []CompletionAlternative `json:"alternatives"`
	ModelVersion string                  `json:"modelVersion"`
}

type CompletionAlternative struct {
	Message *CompletionMessage `json:"message"`
	Status  string             `json:"status"`
}

type CompletionMessage struct {
	Role string  `json:"role"`
	Text *string `json:"text"`
}
