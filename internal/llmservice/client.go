package llmservice

import (
	"context"
	"errors"
	"fmt"

	"document-qg/internal/config"
	"document-qg/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator asks a model for content matching shape and decodes the reply
// into out.
type Generator interface {
	GenerateStructured(ctx context.Context, prompt string, shape models.Shape, out any) error
}

// Mode selects how a langchaingo model is coerced into structured output.
type Mode int

const (
	// ModeTools forces the answer through a function call whose parameters
	// are the shape's schema.
	ModeTools Mode = iota
	// ModeJSON relies on the server's JSON mode and the schema in the
	// system prompt.
	ModeJSON
)

// Client is a Generator backed by a langchaingo model.
type Client struct {
	model       llms.Model
	mode        Mode
	temperature float64
	maxTokens   int
}

// NewGenerator builds the Generator for the configured provider.
func NewGenerator(cfg *config.LLMConfig) (Generator, error) {
	log.Debug().Str("provider", cfg.Provider).Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("Creating generator")

	switch cfg.Provider {
	case "openai-jsonschema":
		return NewSchemaClient(cfg), nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
			ollama.WithFormat("json"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return NewClient(llm, ModeJSON, cfg), nil
	case "openai":
		opts := []openai.Option{
			openai.WithToken(cfg.Key),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return NewClient(llm, ModeTools, cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func NewClient(model llms.Model, mode Mode, cfg *config.LLMConfig) *Client {
	c := &Client{model: model, mode: mode}
	if cfg != nil {
		c.temperature = cfg.Temperature
		c.maxTokens = cfg.MaxTokens
	}
	return c
}

// GenerateContent calls the model with the client's sampling options.
func (c *Client) GenerateContent(ctx context.Context, tools []llms.Tool, messages []llms.MessageContent, extra ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}
	opts = append(opts, extra...)
	return c.model.GenerateContent(ctx, messages, opts...)
}

func (c *Client) GenerateStructured(ctx context.Context, prompt string, shape models.Shape, out any) error {
	system, err := systemPrompt(shape)
	if err != nil {
		return err
	}
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	var resp *llms.ContentResponse
	switch c.mode {
	case ModeTools:
		tool := llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        shape.Name,
				Description: shape.Description,
				Parameters:  shape.Schema,
			},
		}
		resp, err = c.GenerateContent(ctx, []llms.Tool{tool}, messages)
	case ModeJSON:
		resp, err = c.GenerateContent(ctx, nil, messages, llms.WithJSONMode())
	default:
		return fmt.Errorf("unknown structured output mode %d", c.mode)
	}
	if err != nil {
		return err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return errors.New("no response generated")
	}

	choice := resp.Choices[0]
	raw := choice.Content
	for _, call := range choice.ToolCalls {
		if call.FunctionCall != nil && call.FunctionCall.Name == shape.Name {
			raw = call.FunctionCall.Arguments
			break
		}
	}
	log.Debug().Str("shape", shape.Name).Int("reply_len", len(raw)).Msg("Model replied")

	return decodeStructured(raw, shape, out)
}
