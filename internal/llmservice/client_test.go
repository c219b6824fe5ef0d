package llmservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"document-qg/internal/config"
	"document-qg/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

const fibJSON = `{"questions":[{"sentence":"An exponent tells how many times to use a number in a _________.","correct_answer":"multiplication","source_page":1}]}`

type fakeModel struct {
	resp *llms.ContentResponse
	opts llms.CallOptions
	msgs []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.msgs = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.resp, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```"},
		{"think", "<think>\nlet me {think}\n</think>\n{\"a\":1}"},
		{"prose", "Sure! Here it is: {\"a\":1} Hope it helps."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.raw)
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":1}`, got)
		})
	}

	_, err := extractJSON("no json here")
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestDecodeStructured_SchemaViolation(t *testing.T) {
	var out models.MCQSet
	err := decodeStructured(`{"questions":[{"question":"q","options":["only one"],"correct_answer":"a","explanation":"e","source_page":1}]}`, models.MCQSetShape, &out)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	err = decodeStructured(`{"summary":"wrong field"}`, models.SummaryShape, &models.Summary{})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestClient_ToolMode(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           "call_1",
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: models.FillInTheBlankSetShape.Name, Arguments: fibJSON},
		}},
	}}}}
	client := NewClient(model, ModeTools, &config.LLMConfig{Temperature: 0.2})

	var out models.FillInTheBlankSet
	require.NoError(t, client.GenerateStructured(context.Background(), "make questions", models.FillInTheBlankSetShape, &out))
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "multiplication", out.Questions[0].CorrectAnswer)
	assert.Equal(t, 1, out.Questions[0].SourcePage)

	require.Len(t, model.opts.Tools, 1)
	assert.Equal(t, "FillInTheBlanks", model.opts.Tools[0].Function.Name)
	assert.InDelta(t, 0.2, model.opts.Temperature, 1e-9)
	require.Len(t, model.msgs, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.msgs[0].Role)
}

func TestClient_ToolModeFallsBackToContent(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: fibJSON}}}}
	client := NewClient(model, ModeTools, nil)

	var out models.FillInTheBlankSet
	require.NoError(t, client.GenerateStructured(context.Background(), "p", models.FillInTheBlankSetShape, &out))
	assert.Len(t, out.Questions, 1)
}

func TestClient_JSONMode(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content: "```json\n{\"summary_text\":\"Exponents are repeated multiplication.\"}\n```",
	}}}}
	client := NewClient(model, ModeJSON, nil)

	var out models.Summary
	require.NoError(t, client.GenerateStructured(context.Background(), "p", models.SummaryShape, &out))
	assert.Equal(t, "Exponents are repeated multiplication.", out.SummaryText)
	assert.True(t, model.opts.JSONMode)
	assert.Empty(t, model.opts.Tools)
}

func TestClient_NoChoices(t *testing.T) {
	client := NewClient(&fakeModel{resp: &llms.ContentResponse{}}, ModeJSON, nil)
	err := client.GenerateStructured(context.Background(), "p", models.SummaryShape, &models.Summary{})
	assert.Error(t, err)
}

func TestSchemaClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		format, ok := req["response_format"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "json_schema", format["type"])
		schema := format["json_schema"].(map[string]any)
		assert.Equal(t, "FillInTheBlanks", schema["name"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": fibJSON},
			}},
		})
	}))
	defer server.Close()

	client := NewSchemaClient(&config.LLMConfig{Key: "test", Model: "test-model", BaseURL: server.URL + "/v1"})
	var out models.FillInTheBlankSet
	require.NoError(t, client.GenerateStructured(context.Background(), "p", models.FillInTheBlankSetShape, &out))
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "multiplication", out.Questions[0].CorrectAnswer)
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(&config.LLMConfig{Provider: "smoke-signals"})
	assert.Error(t, err)

	g, err := NewGenerator(&config.LLMConfig{Provider: "openai-jsonschema", Key: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &SchemaClient{}, g)

	g, err = NewGenerator(&config.LLMConfig{Provider: "openai", Key: "k", Model: "m", BaseURL: "http://127.0.0.1:1/v1"})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, g)
}
