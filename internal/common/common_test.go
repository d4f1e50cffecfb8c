package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

func TestTokenUsageOf(t *testing.T) {
	analyzeUsage := &types.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}
	boostUsage := &types.TokenUsage{PromptTokens: 200, CompletionTokens: 150, TotalTokens: 350}

	tests := []struct {
		name   string
		result any
		want   *types.TokenUsage
	}{
		{"analysis", &types.AnalysisResult{Usage: analyzeUsage}, analyzeUsage},
		{"resume", &types.ResumeDocument{Usage: boostUsage}, boostUsage},
		{
			name: "boost sums both calls",
			result: &types.BoostResult{
				Resume:   types.ResumeDocument{Usage: boostUsage},
				Analysis: types.AnalysisResult{Usage: analyzeUsage},
			},
			want: &types.TokenUsage{PromptTokens: 300, CompletionTokens: 170, TotalTokens: 470},
		},
		{"boost without usage", &types.BoostResult{}, nil},
		{"extraction has none", &types.ExtractionResult{Text: "x"}, nil},
		{"value type is ignored", types.AnalysisResult{Usage: analyzeUsage}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenUsageOf(tt.result))
		})
	}
}

func TestRunCommandWritesFormattedResult(t *testing.T) {
	var out bytes.Buffer
	handler := NewOutputHandlerWithWriter(&out, quietLogger())

	err := RunCommand(context.Background(), quietLogger(), CommandConfig{OutputFormat: "text"}, handler,
		func(ctx context.Context) (*types.AnalysisResult, error) {
			return &types.AnalysisResult{Score: 72, DisplayScore: 72, Report: "Good match."}, nil
		})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Score: 72/100")
	assert.Contains(t, out.String(), "Good match.")
}

func TestRunCommandReturnsOperationError(t *testing.T) {
	var out bytes.Buffer
	handler := NewOutputHandlerWithWriter(&out, quietLogger())
	boom := stderrors.New("gateway down")

	err := RunCommand(context.Background(), quietLogger(), CommandConfig{OutputFormat: "json"}, handler,
		func(ctx context.Context) (*types.ResumeDocument, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

func TestHandleOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "analysis.json")
	handler := NewOutputHandlerWithWriter(io.Discard, quietLogger())

	doc := &types.ResumeDocument{Kind: types.ResumeBoosted, Markdown: "# Jane Doe"}
	require.NoError(t, handler.HandleOutput(doc, CommandConfig{OutputFile: path, OutputFormat: "json"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"markdown": "# Jane Doe"`)
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	handler := NewOutputHandlerWithWriter(io.Discard, quietLogger())
	err := handler.HandleOutput(&types.ResumeDocument{}, CommandConfig{OutputFormat: "yaml"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func TestFileProcessorReadFile(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte(strings.Repeat("a", 64)), 0o600))

	fp := NewFileProcessor(32, quietLogger())

	_, err := fp.ReadFile(resume)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	_, err = fp.ReadFile(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)

	upload, err := NewFileProcessor(0, quietLogger()).ReadFile(resume)
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", upload.Filename)
	assert.Len(t, upload.Data, 64)
}
