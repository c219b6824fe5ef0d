package llmservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"document-qg/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedOutput is returned when the model reply is not a JSON object
// matching the requested shape.
var ErrMalformedOutput = errors.New("malformed model output")

var thinkRe = regexp.MustCompile(models.ThinkTag)

// extractJSON strips reasoning blocks and code fences and returns the
// outermost JSON object in raw.
func extractJSON(raw string) (string, error) {
	cleaned := thinkRe.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrMalformedOutput)
	}
	return cleaned[start : end+1], nil
}

// decodeStructured validates raw against shape's schema and unmarshals it
// into out.
func decodeStructured(raw string, shape models.Shape, out any) error {
	payload, err := extractJSON(raw)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(shape.Schema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedOutput, shape.Name, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrMalformedOutput, shape.Name, strings.Join(problems, "; "))
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedOutput, shape.Name, err)
	}
	return nil
}

func schemaJSON(shape models.Shape) (string, error) {
	b, err := json.Marshal(shape.Schema)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s schema: %w", shape.Name, err)
	}
	return string(b), nil
}

func systemPrompt(shape models.Shape) (string, error) {
	schema, err := schemaJSON(shape)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(models.SystemPromptStructured, shape.Name, schema), nil
}
