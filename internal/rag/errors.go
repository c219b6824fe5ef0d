package rag

import "errors"

var (
	// ErrNotIngested means no document has been indexed yet.
	ErrNotIngested = errors.New("vector store not found, ingest a document first")
	// ErrGenerationFailed wraps any LLM failure or non-conforming output.
	ErrGenerationFailed = errors.New("content generation failed")
	// ErrEmptyResult means generation worked but nothing usable survived.
	ErrEmptyResult = errors.New("no content could be generated for the given topic")
	// ErrInvalidInput rejects a request before the graph runs.
	ErrInvalidInput = errors.New("invalid generation request")
)
