package llmservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"document-qg/internal/config"
	"document-qg/internal/models"

	"github.com/sashabaranov/go-openai"
)

// SchemaClient is a Generator for servers that enforce a JSON schema on the
// reply through response_format.
type SchemaClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewSchemaClient(cfg *config.LLMConfig) *SchemaClient {
	clientCfg := openai.DefaultConfig(cfg.Key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &SchemaClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

func (s *SchemaClient) GenerateStructured(ctx context.Context, prompt string, shape models.Shape, out any) error {
	system, err := systemPrompt(shape)
	if err != nil {
		return err
	}
	schema, err := json.Marshal(shape.Schema)
	if err != nil {
		return fmt.Errorf("failed to encode %s schema: %w", shape.Name, err)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        shape.Name,
				Description: shape.Description,
				Schema:      json.RawMessage(schema),
			},
		},
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return errors.New("no response generated")
	}

	return decodeStructured(resp.Choices[0].Message.Content, shape, out)
}
