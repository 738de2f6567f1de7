// Package llmclient provides pluggable LLM/VLM provider contracts for the
// pipeline's external collaborators: the NLP enricher's optional LLM-backed
// extraction fallback, and the refinement loop's VLM-based visual critique.
package llmclient

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// ProviderConfig describes how to reach an LLM/VLM provider. The shape
// mirrors a typed provider-selection config: a Type discriminator, a model
// name, and the name of the environment variable holding the credential
// rather than the credential itself.
type ProviderConfig struct {
	Type      string `yaml:"type" json:"type"` // "openai", "stub"
	Model     string `yaml:"model" json:"model"`
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// ChatMessage is a single turn in an LLM conversation.
type ChatMessage struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// LLM is the minimal text-completion contract the pipeline depends on.
type LLM interface {
	Chat(ctx context.Context, messages []ChatMessage, temperature float64, jsonMode bool) (string, error)
	Name() string
}

// VLMResult is the refinement loop's visual critique output.
type VLMResult struct {
	IsValid    bool    `json:"is_valid"`
	Confidence float64 `json:"confidence"`
	Issues     []string `json:"issues,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// VLM is the minimal vision-language critique contract for C10.
type VLM interface {
	Validate(ctx context.Context, svgContent string, problemText string) (*VLMResult, error)
	Name() string
}

// NewLLM constructs an LLM from config. If the configured credential
// environment variable is unset, a StubLLM is returned instead of an error:
// per the pipeline's degraded-mode contract, a missing optional dependency
// produces a warning, not a fatal error.
func NewLLM(cfg ProviderConfig) (LLM, bool) {
	switch cfg.Type {
	case "openai":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return &StubLLM{}, false
		}
		clientCfg := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		model := cfg.Model
		if model == "" {
			model = openai.GPT4oMini
		}
		return &OpenAILLM{client: openai.NewClientWithConfig(clientCfg), model: model}, true
	default:
		return &StubLLM{}, false
	}
}

// NewVLM constructs a VLM the same way NewLLM does.
func NewVLM(cfg ProviderConfig) (VLM, bool) {
	switch cfg.Type {
	case "openai":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return &StubVLM{}, false
		}
		clientCfg := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		model := cfg.Model
		if model == "" {
			model = openai.GPT4o
		}
		return &OpenAIVLM{client: openai.NewClientWithConfig(clientCfg), model: model}, true
	default:
		return &StubVLM{}, false
	}
}

// OpenAILLM is the concrete LLM backend used when a credential is present.
type OpenAILLM struct {
	client *openai.Client
	model  string
}

func (o *OpenAILLM) Name() string { return "openai:" + o.model }

func (o *OpenAILLM) Chat(ctx context.Context, messages []ChatMessage, temperature float64, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: float32(temperature),
		Messages:    toOpenAIMessages(messages),
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llmclient: openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmclient: openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// OpenAIVLM is the concrete VLM backend. The refinement loop submits the
// rendered SVG as markup text, which is placed in the prompt as-is; this
// type does no image encoding.
type OpenAIVLM struct {
	client *openai.Client
	model  string
}

func (o *OpenAIVLM) Name() string { return "openai:" + o.model }

func (o *OpenAIVLM) Validate(ctx context.Context, svgContent string, problemText string) (*VLMResult, error) {
	prompt := fmt.Sprintf(
		"You are checking whether a technical diagram correctly depicts this problem:\n\n%s\n\nDiagram SVG:\n%s\n\n"+
			"Respond with JSON: {\"is_valid\": bool, \"confidence\": float, \"issues\": [string], \"notes\": string}",
		problemText, svgContent)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient: openai vlm validate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llmclient: openai vlm validate: no choices returned")
	}
	return parseVLMResult(resp.Choices[0].Message.Content)
}

// StubLLM is returned when no credential is configured. It is deterministic
// and never fails, matching spec's "optional dependency missing: no-op with
// warning" pattern for any collaborator that touches the LLM.
type StubLLM struct{}

func (s *StubLLM) Name() string { return "stub" }

func (s *StubLLM) Chat(ctx context.Context, messages []ChatMessage, temperature float64, jsonMode bool) (string, error) {
	if jsonMode {
		return "{}", nil
	}
	return "", nil
}

// StubVLM always reports a neutral pass with mid confidence, signalling
// "not actually checked" to callers via the low confidence value rather
// than a hard failure.
type StubVLM struct{}

func (s *StubVLM) Name() string { return "stub" }

func (s *StubVLM) Validate(ctx context.Context, svgContent string, problemText string) (*VLMResult, error) {
	return &VLMResult{IsValid: true, Confidence: 0.5, Notes: "vlm provider not configured"}, nil
}
