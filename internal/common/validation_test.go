package common

import (
	"testing"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name      string
		format    string
		supported []string
		wantErr   string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{name: "docx is an export format, not an output format", format: "docx", supported: supported,
			wantErr: "unsupported output format 'docx'. Supported formats: [json text markdown]"},
		{name: "case sensitive", format: "JSON", supported: supported,
			wantErr: "unsupported output format 'JSON'"},
		{name: "empty format", format: "", supported: supported,
			wantErr: "unsupported output format ''"},
		{name: "no restrictions", format: "anything", supported: nil},
		{name: "custom list", format: "text", supported: []string{"text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateExportPath(t *testing.T) {
	tests := []struct {
		path     string
		wantType errors.ErrorType
	}{
		{"", ""},
		{"out/optimized_resume.docx", ""},
		{"resume.MD", ""},
		{"resume.html", ""},
		{"resume.pdf", errors.ErrorTypeFormat},
		{"resume.txt", errors.ErrorTypeValidation},
		{"resume", errors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidateExportPath(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
		})
	}
}
