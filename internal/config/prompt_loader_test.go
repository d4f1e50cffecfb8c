package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSystemPromptFiles(t *testing.T) {
	dir := t.TempDir()
	boostFile := filepath.Join(dir, "boost.md")
	require.NoError(t, os.WriteFile(boostFile, []byte("\nRevise for a senior audience.\n"), 0600))

	cfg := &Config{}
	cfg.AI.Boost.SystemPromptFile = boostFile
	cfg.AI.Custom.SystemPromptFile = boostFile
	cfg.AI.Custom.SystemPrompt = "inline wins"

	require.NoError(t, cfg.loadSystemPromptFiles())
	assert.Equal(t, "Revise for a senior audience.", cfg.AI.Boost.SystemPrompt)
	assert.Equal(t, "inline wins", cfg.AI.Custom.SystemPrompt)
	assert.Empty(t, cfg.AI.Analyze.SystemPrompt)
}

func TestLoadPromptFromFileErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(empty, []byte("   \n"), 0600))
	large := filepath.Join(dir, "large.md")
	require.NoError(t, os.WriteFile(large, []byte(strings.Repeat("x", maxPromptFileSize+1)), 0600))

	tests := []struct {
		name     string
		path     string
		errorMsg string
	}{
		{name: "missing", path: filepath.Join(dir, "nope.md"), errorMsg: "cannot access"},
		{name: "directory", path: dir, errorMsg: "is a directory"},
		{name: "empty", path: empty, errorMsg: "is empty"},
		{name: "too large", path: large, errorMsg: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadPromptFromFile(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
