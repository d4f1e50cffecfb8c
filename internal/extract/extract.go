// Package extract turns uploaded resume and job description files into text.
//
// PDF and Word documents each have two interchangeable engines. The engine is
// chosen once from configuration when the Service is built.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/config"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// Extractor converts the bytes of one document kind into text. On failure an
// implementation returns whatever text it had accumulated with the error.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
	Name() string
}

// Purpose restricts which file kinds an upload may have.
type Purpose int

const (
	PurposeResume Purpose = iota
	PurposeJobDescription
)

var resumeExtensions = map[string]types.DocumentKind{
	".txt":  types.KindText,
	".tex":  types.KindText,
	".pdf":  types.KindPDF,
	".docx": types.KindWord,
}

var jobDescriptionExtensions = map[string]types.DocumentKind{
	".txt":  types.KindText,
	".pdf":  types.KindPDF,
	".docx": types.KindWord,
}

// KindFromFilename maps a file extension, case-insensitively, to a document kind.
func KindFromFilename(filename string, purpose Purpose) (types.DocumentKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := resumeExtensions
	label := "resume"
	if purpose == PurposeJobDescription {
		allowed = jobDescriptionExtensions
		label = "job description"
	}

	kind, ok := allowed[ext]
	if !ok {
		return "", errors.NewExtractionError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("Unsupported file type for %s", label), nil).
			WithContext("filename", filename)
	}
	return kind, nil
}

// Service dispatches documents to the configured engine for their kind.
type Service struct {
	engines     map[types.DocumentKind]Extractor
	maxFileSize int64
	logger      *errors.Logger
}

// NewService builds a Service with the engines selected in cfg.
func NewService(cfg config.ExtractionConfig, logger *errors.Logger) (*Service, error) {
	var pdf Extractor
	switch cfg.PDFEngine {
	case config.PDFEngineLayout:
		pdf = &LayoutPDF{TempDir: cfg.TempDir}
	case config.PDFEnginePages:
		pdf = &PagedPDF{}
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown PDF engine %q", cfg.PDFEngine), nil)
	}

	var word Extractor
	switch cfg.DOCXEngine {
	case config.DOCXEngineMarkdown:
		word = &MarkdownDOCX{}
	case config.DOCXEngineParagraphs:
		word = &ParagraphDOCX{}
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown DOCX engine %q", cfg.DOCXEngine), nil)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = config.DefaultMaxFileSize
	}

	return NewServiceWith(map[types.DocumentKind]Extractor{
		types.KindText: PlainText{},
		types.KindPDF:  pdf,
		types.KindWord: word,
	}, maxSize, logger), nil
}

// NewServiceWith builds a Service from explicit engines.
func NewServiceWith(engines map[types.DocumentKind]Extractor, maxFileSize int64, logger *errors.Logger) *Service {
	return &Service{engines: engines, maxFileSize: maxFileSize, logger: logger}
}

// Engine reports the engine name used for kind.
func (s *Service) Engine(kind types.DocumentKind) string {
	if e, ok := s.engines[kind]; ok {
		return e.Name()
	}
	return ""
}

// Extract returns the text of doc. A non-nil error is always an extraction
// AppError; text then holds whatever was read before the failure.
func (s *Service) Extract(ctx context.Context, doc types.UploadedDocument) (text string, err error) {
	engine, ok := s.engines[doc.Kind]
	if !ok {
		return "", errors.NewExtractionError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("Unsupported document kind %q", doc.Kind), nil).
			WithContext("filename", doc.Filename)
	}

	if int64(len(doc.Data)) > s.maxFileSize {
		return "", errors.NewExtractionError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s is larger than %d bytes", doc.Filename, s.maxFileSize), nil)
	}

	// Parser libraries may panic on malformed input
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Extraction engine panicked",
				"engine", engine.Name(), "filename", doc.Filename, "panic", r, "stack", string(debug.Stack()))
			err = errors.NewExtractionError(errors.ErrCodeExtractionFailed,
				fmt.Sprintf("Error extracting text from %s", doc.Filename), fmt.Errorf("panic: %v", r)).
				WithContext("engine", engine.Name())
		}
	}()

	text, err = engine.Extract(ctx, doc.Data)
	if err != nil {
		s.logger.Debug("Extraction failed", "engine", engine.Name(), "filename", doc.Filename, "partial_chars", len(text))
		if _, isApp := errors.AsAppError(err); !isApp {
			err = errors.NewExtractionError(errors.ErrCodeExtractionFailed,
				fmt.Sprintf("Error extracting text from %s", doc.Filename), err)
		}
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithContext("engine", engine.Name())
		}
		return text, err
	}

	s.logger.Debug("Extracted document", "engine", engine.Name(), "filename", doc.Filename, "chars", len(text))
	return text, nil
}

// PlainText decodes .txt and .tex files as UTF-8.
type PlainText struct{}

func (PlainText) Name() string { return "text" }

func (PlainText) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "File is not valid UTF-8 text", nil)
	}
	return string(data), nil
}
