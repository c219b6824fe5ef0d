package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"document-qg/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`llm:
  provider: ollama
  base_url: http://localhost:11434
  model: llama3
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
rag:
  vector_store: chromem
  db_path: %s
  upload_dir: %s
log:
  level: error
`, filepath.Join(dir, "store"), filepath.Join(dir, "uploads"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRun_MalformedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))

	err := run(options{configPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading config")
}

func TestRun_NoModeReturnsError(t *testing.T) {
	err := run(options{configPath: writeConfig(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please provide")
}

func TestRun_IngestErrorIsReturned(t *testing.T) {
	err := run(options{
		configPath: writeConfig(t),
		filePath:   filepath.Join(t.TempDir(), "absent.txt"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error ingesting document")
}

func TestRun_InvalidGenerationRequestIsReturned(t *testing.T) {
	err := run(options{
		configPath: writeConfig(t),
		request:    models.GenerationRequest{ContentType: models.ContentTypeMCQ, NumQuestions: 11},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error generating content")
}
