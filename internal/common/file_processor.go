package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/utils"
)

// Upload is a local file read for the pipeline.
type Upload struct {
	Filename string
	Data     []byte
}

// FileProcessor handles common file operations
type FileProcessor struct {
	maxSize int64
	logger  *errors.Logger
}

// NewFileProcessor creates a file processor that rejects inputs larger than
// maxSize bytes (zero means unlimited).
func NewFileProcessor(maxSize int64, logger *errors.Logger) *FileProcessor {
	return &FileProcessor{maxSize: maxSize, logger: logger}
}

// ReadFile validates and reads filename.
func (fp *FileProcessor) ReadFile(filename string) (*Upload, error) {
	if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
		if _, statErr := os.Stat(filename); os.IsNotExist(statErr) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}

	if fp.logger != nil {
		fp.logger.Debug("Read input file", "filename", filename, "size", utils.FormatFileSize(int64(len(data))))
	}
	// The extension decides the extractor, so keep only the base name.
	return &Upload{Filename: filepath.Base(filename), Data: data}, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename string, content []byte) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	if err := os.WriteFile(filename, content, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
