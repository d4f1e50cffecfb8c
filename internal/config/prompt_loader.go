package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// maxPromptFileSize bounds system prompt files read at startup.
const maxPromptFileSize = 64 << 10

// loadSystemPromptFiles reads every configured systemPromptFile into the
// matching SystemPrompt. An inline systemPrompt wins over a file.
func (c *Config) loadSystemPromptFiles() error {
	loaded := 0
	for _, op := range types.Operations {
		opCfg := c.AI.operations()[op]
		if opCfg.SystemPromptFile == "" {
			continue
		}
		if opCfg.SystemPrompt != "" {
			log.Printf("[CONFIG] %s: inline systemPrompt set, ignoring %s", op, opCfg.SystemPromptFile)
			continue
		}

		content, err := loadPromptFromFile(opCfg.SystemPromptFile)
		if err != nil {
			return fmt.Errorf("%s system prompt: %w", op, err)
		}
		opCfg.SystemPrompt = content
		loaded++
	}

	if loaded > 0 {
		log.Printf("[CONFIG] Loaded %d system prompt file(s)", loaded)
	}
	return nil
}

func loadPromptFromFile(path string) (string, error) {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access prompt file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("prompt file %s is a directory", path)
	}
	if info.Size() > maxPromptFileSize {
		return "", fmt.Errorf("prompt file %s is too large (%d bytes, max %d)", path, info.Size(), maxPromptFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return content, nil
}
