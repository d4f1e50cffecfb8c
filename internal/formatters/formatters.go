package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters used by the CLI.
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	for _, f := range []Formatter{
		&AnalysisTextFormatter{}, &BoostTextFormatter{}, &ResumeTextFormatter{}, &ExtractionTextFormatter{},
	} {
		registry.RegisterFormatter("text", f.SupportedType(), f)
	}
	for _, f := range []Formatter{
		&AnalysisMarkdownFormatter{}, &BoostMarkdownFormatter{}, &ResumeMarkdownFormatter{}, &ExtractionMarkdownFormatter{},
	} {
		registry.RegisterFormatter("markdown", f.SupportedType(), f)
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult, *types.AnalysisResult:
		return "AnalysisResult"
	case types.BoostResult, *types.BoostResult:
		return "BoostResult"
	case types.ResumeDocument, *types.ResumeDocument:
		return "ResumeDocument"
	case types.ExtractionResult, *types.ExtractionResult:
		return "ExtractionResult"
	default:
		return "any"
	}
}

// deref accepts T or *T and returns T.
func deref[T any](data any) (T, error) {
	switch v := data.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("expected %T, got %T", zero, data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string { return "any" }

func writeUsage(b *strings.Builder, usage *types.TokenUsage) {
	if usage == nil {
		return
	}
	fmt.Fprintf(b, "Tokens: %d in, %d out, %d total\n", usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

// AnalysisTextFormatter prints the score line followed by the raw report.
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	result, err := deref[types.AnalysisResult](data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== ATS ANALYSIS ===\n")
	fmt.Fprintf(&b, "Score: %s/100\n\n", formatScore(result.DisplayScore))
	b.WriteString(strings.TrimSpace(result.Report))
	b.WriteString("\n")
	writeUsage(&b, result.Usage)
	return b.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string { return "AnalysisResult" }

// AnalysisMarkdownFormatter prints the formatted report under a score heading.
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, err := deref[types.AnalysisResult](data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# ATS Score: %s/100\n\n", formatScore(result.DisplayScore))
	b.WriteString(strings.TrimSpace(result.FormattedReport))
	b.WriteString("\n")
	return b.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string { return "AnalysisResult" }

// BoostTextFormatter prints the boosted resume and the new score.
type BoostTextFormatter struct{}

func (f *BoostTextFormatter) Format(data any) (string, error) {
	result, err := deref[types.BoostResult](data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== BOOSTED RESUME ===\n\n")
	b.WriteString(strings.TrimSpace(result.Resume.Markdown))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "=== BOOSTED ATS SCORE: %s/100 ===\n\n", formatScore(result.Analysis.DisplayScore))
	b.WriteString(strings.TrimSpace(result.Analysis.Report))
	b.WriteString("\n")
	writeUsage(&b, result.Resume.Usage)
	return b.String(), nil
}

func (f *BoostTextFormatter) SupportedType() string { return "BoostResult" }

// BoostMarkdownFormatter prints the boosted resume as the document body with
// the score appended.
type BoostMarkdownFormatter struct{}

func (f *BoostMarkdownFormatter) Format(data any) (string, error) {
	result, err := deref[types.BoostResult](data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(result.Resume.Markdown))
	b.WriteString("\n\n---\n\n")
	fmt.Fprintf(&b, "## Boosted ATS Score: %s/100\n\n", formatScore(result.Analysis.DisplayScore))
	b.WriteString(strings.TrimSpace(result.Analysis.FormattedReport))
	b.WriteString("\n")
	return b.String(), nil
}

func (f *BoostMarkdownFormatter) SupportedType() string { return "BoostResult" }

// ResumeTextFormatter prints a generated resume under a title.
type ResumeTextFormatter struct{}

func (f *ResumeTextFormatter) Format(data any) (string, error) {
	doc, err := deref[types.ResumeDocument](data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s RESUME ===\n\n", strings.ToUpper(string(doc.Kind)))
	b.WriteString(strings.TrimSpace(doc.Markdown))
	b.WriteString("\n")
	writeUsage(&b, doc.Usage)
	return b.String(), nil
}

func (f *ResumeTextFormatter) SupportedType() string { return "ResumeDocument" }

// ResumeMarkdownFormatter prints the resume Markdown unchanged.
type ResumeMarkdownFormatter struct{}

func (f *ResumeMarkdownFormatter) Format(data any) (string, error) {
	doc, err := deref[types.ResumeDocument](data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Markdown) + "\n", nil
}

func (f *ResumeMarkdownFormatter) SupportedType() string { return "ResumeDocument" }

// ExtractionTextFormatter prints only the extracted text.
type ExtractionTextFormatter struct{}

func (f *ExtractionTextFormatter) Format(data any) (string, error) {
	result, err := deref[types.ExtractionResult](data)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(result.Text, "\n") {
		return result.Text, nil
	}
	return result.Text + "\n", nil
}

func (f *ExtractionTextFormatter) SupportedType() string { return "ExtractionResult" }

// ExtractionMarkdownFormatter prints the text under a heading naming the file.
type ExtractionMarkdownFormatter struct{}

func (f *ExtractionMarkdownFormatter) Format(data any) (string, error) {
	result, err := deref[types.ExtractionResult](data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", result.Filename)
	fmt.Fprintf(&b, "_Extracted as %s with %s_\n\n", result.Kind, result.Engine)
	b.WriteString(strings.TrimSpace(result.Text))
	b.WriteString("\n")
	return b.String(), nil
}

func (f *ExtractionMarkdownFormatter) SupportedType() string { return "ExtractionResult" }

// formatScore drops a trailing ".0" so whole scores print as integers.
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}
