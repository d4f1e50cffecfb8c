package common

import (
	"fmt"
	"slices"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/render"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/utils"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

// ValidateExportPath checks that path ends in an extension the exporter
// can write. An empty path means no export.
func ValidateExportPath(path string) error {
	if path == "" {
		return nil
	}

	ext := utils.GetFileExtension(path)
	if render.ParseFormat(ext) == render.FormatPDF {
		return errors.NewFormatError(errors.ErrCodePDFExportUnsupported, render.PDFExportMessage, nil)
	}
	if !render.IsExportFormat(ext) {
		return errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Cannot export to %s: use a .%s file", path, strings.Join(render.ExportFormats, ", .")), nil)
	}
	return nil
}
