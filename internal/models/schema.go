package models

// Shape names a structured output the LLM must produce, with its JSON schema.
type Shape struct {
	Name        string
	Description string
	Schema      map[string]any
}

var MCQSetShape = Shape{
	Name:        "MCQs",
	Description: "A list of multiple-choice questions grounded in the provided context.",
	Schema: map[string]any{
		"type":     "object",
		"required": []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"question", "options", "correct_answer", "explanation", "source_page"},
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"minItems": 2,
							"items":    map[string]any{"type": "string"},
						},
						"correct_answer": map[string]any{"type": "string"},
						"explanation":    map[string]any{"type": "string"},
						"source_page":    map[string]any{"type": "integer", "minimum": 0},
					},
				},
			},
		},
	},
}

var FillInTheBlankSetShape = Shape{
	Name:        "FillInTheBlanks",
	Description: "A list of fill-in-the-blank questions grounded in the provided context.",
	Schema: map[string]any{
		"type":     "object",
		"required": []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"sentence", "correct_answer", "source_page"},
					"properties": map[string]any{
						"sentence":       map[string]any{"type": "string"},
						"correct_answer": map[string]any{"type": "string"},
						"source_page":    map[string]any{"type": "integer", "minimum": 0},
					},
				},
			},
		},
	},
}

// SummaryShape leaves source_pages optional; the pipeline overwrites it.
var SummaryShape = Shape{
	Name:        "Summary",
	Description: "A concise synthesized summary of the provided context.",
	Schema: map[string]any{
		"type":     "object",
		"required": []any{"summary_text"},
		"properties": map[string]any{
			"summary_text": map[string]any{"type": "string"},
			"source_pages": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
	},
}
