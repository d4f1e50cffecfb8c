package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/ai"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/extract"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/prompt"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/render"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/session"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

// scriptedGateway answers from a queue and remembers every prompt.
type scriptedGateway struct {
	replies []string
	err     error
	prompts []string
}

func (g *scriptedGateway) Generate(_ context.Context, p string) (string, *types.TokenUsage, error) {
	g.prompts = append(g.prompts, p)
	if g.err != nil {
		return "", nil, g.err
	}
	if len(g.replies) == 0 {
		return "", nil, nil
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, &types.TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}, nil
}

type fixture struct {
	p       *Pipeline
	analyze *scriptedGateway
	boost   *scriptedGateway
	custom  *scriptedGateway
	create  *scriptedGateway
	st      *session.AppState
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		analyze: &scriptedGateway{},
		boost:   &scriptedGateway{},
		custom:  &scriptedGateway{},
		create:  &scriptedGateway{},
		st:      session.NewAppState("test"),
	}
	extractor := extract.NewServiceWith(map[types.DocumentKind]extract.Extractor{
		types.KindText: extract.PlainText{},
		types.KindWord: extract.MarkdownDOCX{},
	}, 1<<20, testLogger)

	f.p = New(extractor, map[types.Operation]ai.Gateway{
		types.OperationAnalyze: f.analyze,
		types.OperationBoost:   f.boost,
		types.OperationCustom:  f.custom,
		types.OperationCreate:  f.create,
	}, testLogger)
	return f
}

func (f *fixture) loaded() *fixture {
	f.st.ResumeText = "R"
	f.st.JobDescription = "J"
	return f
}

func TestLoadResume(t *testing.T) {
	f := newFixture(t)

	text, err := f.p.LoadResume(context.Background(), f.st, "cv.TEX", []byte("\\section{Jane} résumé"))
	require.NoError(t, err)
	assert.Equal(t, "\\section{Jane} résumé", text)
	assert.Equal(t, text, f.st.ResumeText)
	assert.Empty(t, f.st.Notices)
}

func TestLoadResumeFailureKeepsPreviousText(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		kind     string
	}{
		{name: "unsupported extension", filename: "cv.rtf", data: []byte("x"), kind: "extraction"},
		{name: "invalid utf-8", filename: "cv.txt", data: []byte{0xff, 0xfe}, kind: "extraction"},
		{name: "engine not configured", filename: "cv.pdf", data: []byte("%PDF"), kind: "extraction"},
		{name: "broken docx", filename: "cv.docx", data: []byte("not a zip"), kind: "extraction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.st.ResumeText = "previous"

			text, err := f.p.LoadResume(context.Background(), f.st, tt.filename, tt.data)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Equal(t, "previous", f.st.ResumeText)
			require.Len(t, f.st.Notices, 1)
			assert.Equal(t, tt.kind, f.st.Notices[0].Kind)
		})
	}
}

func TestLoadResumeFromDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Jane</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	f := newFixture(t)
	text, err := f.p.LoadResume(context.Background(), f.st, "cv.docx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "# Jane\n\n", text)
}

func TestLoadJobDescription(t *testing.T) {
	t.Run("pasted text wins", func(t *testing.T) {
		f := newFixture(t)
		text, err := f.p.LoadJobDescription(context.Background(), f.st, "jd.txt", []byte("from file"), "pasted JD")
		require.NoError(t, err)
		assert.Equal(t, "pasted JD", text)
		assert.Equal(t, "pasted JD", f.st.JobDescription)
	})

	t.Run("blank paste falls back to file", func(t *testing.T) {
		f := newFixture(t)
		text, err := f.p.LoadJobDescription(context.Background(), f.st, "jd.txt", []byte("from file"), "  \n ")
		require.NoError(t, err)
		assert.Equal(t, "from file", text)
	})

	t.Run("tex not accepted for job descriptions", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.p.LoadJobDescription(context.Background(), f.st, "jd.tex", []byte("x"), "")
		assert.Equal(t, errors.ErrorTypeExtraction, errors.TypeOf(err))
		assert.Len(t, f.st.Notices, 1)
	})

	t.Run("nothing provided", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.p.LoadJobDescription(context.Background(), f.st, "", nil, "")
		assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	})
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t).loaded()
	f.analyze.replies = []string{"ATS Score : 82.5\nDetailed Report: add relevant experience in Go"}

	result, err := f.p.Analyze(context.Background(), f.st)
	require.NoError(t, err)

	assert.Equal(t, 82.5, result.Score)
	assert.Equal(t, 82.5, result.DisplayScore)
	assert.Equal(t, "ATS Score : 82.5\nDetailed Report:  in Go", result.Report)
	assert.Equal(t, " 82.5\n**Detailed Report:**  in Go", result.FormattedReport)
	assert.NotNil(t, result.Usage)

	assert.Equal(t, result.Report, f.st.AnalysisReport)
	assert.Equal(t, 82.5, f.st.ATSScore)

	require.Len(t, f.analyze.prompts, 1)
	sent := f.analyze.prompts[0]
	assert.Contains(t, sent, prompt.Checklist)
	assert.Contains(t, sent, "Resume:\nR")
	assert.Contains(t, sent, "Job Description:\nJ")
}

func TestAnalyzeScoreEdgeCases(t *testing.T) {
	tests := []struct {
		reply   string
		score   float64
		display float64
	}{
		{reply: "no marker here", score: 0, display: 0},
		{reply: "ATS Score : 140", score: 140, display: 100},
		{reply: "ATS Score : -5", score: -5, display: 0},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			f := newFixture(t).loaded()
			f.analyze.replies = []string{tt.reply}

			result, err := f.p.Analyze(context.Background(), f.st)
			require.NoError(t, err)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.display, result.DisplayScore)
			assert.Equal(t, tt.score, f.st.ATSScore)
		})
	}
}

func TestAnalyzeRequiresInputs(t *testing.T) {
	f := newFixture(t)
	f.st.ResumeText = "R"

	_, err := f.p.Analyze(context.Background(), f.st)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.Empty(t, f.analyze.prompts)
	require.Len(t, f.st.Notices, 1)
	assert.Equal(t, "validation", f.st.Notices[0].Kind)
}

func TestAnalyzeGatewayFailure(t *testing.T) {
	f := newFixture(t).loaded()
	f.st.AnalysisReport = "old report"
	f.st.ATSScore = 50
	f.analyze.err = errors.NewGatewayError(errors.ErrCodeGatewayFailed, "The AI service call failed", nil)

	_, err := f.p.Analyze(context.Background(), f.st)
	require.Error(t, err)
	assert.Equal(t, "old report", f.st.AnalysisReport)
	assert.Equal(t, float64(50), f.st.ATSScore)
	require.Len(t, f.st.Notices, 1)
	assert.Equal(t, "gateway", f.st.Notices[0].Kind)
	assert.Equal(t, "The AI service call failed", f.st.Notices[0].Message)
}

func TestBoost(t *testing.T) {
	f := newFixture(t).loaded()
	f.st.AnalysisReport = "ATS Score : 40\nDetailed Report: weak"
	f.st.ATSScore = 40
	f.boost.replies = []string{"# Jane\n- Go PLACEHOLDER"}
	f.analyze.replies = []string{"ATS Score : 88"}

	result, err := f.p.Boost(context.Background(), f.st)
	require.NoError(t, err)

	assert.Equal(t, "# Jane\n- Go ", result.Resume.Markdown)
	assert.Equal(t, types.ResumeBoosted, result.Resume.Kind)
	assert.Equal(t, float64(88), result.Analysis.Score)
	assert.Equal(t, "# Jane\n- Go ", f.st.BoostedResume)
	assert.Equal(t, float64(88), f.st.BoostedATSScore)
	assert.Equal(t, float64(40), f.st.ATSScore)

	require.Len(t, f.boost.prompts, 1)
	assert.Contains(t, f.boost.prompts[0], "ATS Analysis Report:\nATS Score : 40\nDetailed Report: weak")
	require.Len(t, f.analyze.prompts, 1)
	assert.Contains(t, f.analyze.prompts[0], "Resume:\n# Jane\n- Go \n")
}

func TestBoostRequiresAnalysis(t *testing.T) {
	f := newFixture(t).loaded()

	_, err := f.p.Boost(context.Background(), f.st)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.Empty(t, f.boost.prompts)
}

func TestBoostReanalysisFailureKeepsState(t *testing.T) {
	f := newFixture(t).loaded()
	f.st.AnalysisReport = "ATS Score : 40"
	f.boost.replies = []string{"# Better"}
	f.analyze.err = errors.NewGatewayError(errors.ErrCodeGatewayTimeout, "The AI service did not respond in time", nil)

	_, err := f.p.Boost(context.Background(), f.st)
	require.Error(t, err)
	assert.Empty(t, f.st.BoostedResume)
	assert.Zero(t, f.st.BoostedATSScore)
	require.Len(t, f.st.Notices, 1)
	assert.Equal(t, errors.ErrCodeGatewayTimeout, f.st.Notices[0].Code)
}

func TestCustomUpdate(t *testing.T) {
	t.Run("uses loaded resume", func(t *testing.T) {
		f := newFixture(t).loaded()
		f.custom.replies = []string{"# Short"}

		doc, err := f.p.CustomUpdate(context.Background(), f.st, "", "Shorten it")
		require.NoError(t, err)
		assert.Equal(t, "# Short", doc.Markdown)
		assert.Equal(t, "# Short", f.st.CustomUpdatedResume)
		assert.Contains(t, f.custom.prompts[0], "Resume:\nR\n\nCustom Instructions:\nShorten it")
	})

	t.Run("override wins", func(t *testing.T) {
		f := newFixture(t).loaded()
		f.custom.replies = []string{"ok"}

		_, err := f.p.CustomUpdate(context.Background(), f.st, "OTHER", "Shorten it")
		require.NoError(t, err)
		assert.Contains(t, f.custom.prompts[0], "Resume:\nOTHER\n")
	})

	t.Run("instructions required", func(t *testing.T) {
		f := newFixture(t).loaded()
		_, err := f.p.CustomUpdate(context.Background(), f.st, "", "   ")
		assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
		assert.Empty(t, f.custom.prompts)
	})

	t.Run("resume required", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.p.CustomUpdate(context.Background(), f.st, "", "Shorten it")
		assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	})
}

func TestCustomUpdateFromUpload(t *testing.T) {
	t.Run("uploaded resume is the source", func(t *testing.T) {
		f := newFixture(t).loaded()
		f.custom.replies = []string{"# Edited"}

		doc, err := f.p.CustomUpdateFromUpload(context.Background(), f.st, "other.txt", []byte("Uploaded CV"), "Shorten it")
		require.NoError(t, err)
		assert.Equal(t, "# Edited", doc.Markdown)
		assert.Contains(t, f.custom.prompts[0], "Resume:\nUploaded CV\n")
		assert.Equal(t, "R", f.st.ResumeText)
	})

	t.Run("no upload uses loaded resume", func(t *testing.T) {
		f := newFixture(t).loaded()
		f.custom.replies = []string{"ok"}

		_, err := f.p.CustomUpdateFromUpload(context.Background(), f.st, "", nil, "Shorten it")
		require.NoError(t, err)
		assert.Contains(t, f.custom.prompts[0], "Resume:\nR\n")
	})

	t.Run("extraction failure is logged and noted", func(t *testing.T) {
		f := newFixture(t).loaded()
		f.st.CustomUpdatedResume = "earlier edit"
		var logs bytes.Buffer
		f.p.logger = errors.NewLoggerWithWriter(&logs, slog.LevelDebug)

		_, err := f.p.CustomUpdateFromUpload(context.Background(), f.st, "cv.rtf", []byte("x"), "Shorten it")
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeExtraction, errors.TypeOf(err))
		assert.Empty(t, f.custom.prompts)
		assert.Equal(t, "earlier edit", f.st.CustomUpdatedResume)
		require.Len(t, f.st.Notices, 1)
		assert.Equal(t, errors.ErrCodeUnsupportedFormat, f.st.Notices[0].Code)
		assert.Contains(t, logs.String(), "custom_update")
	})
}

// partialExtractor reads some text and then fails.
type partialExtractor struct{}

func (partialExtractor) Extract(context.Context, types.UploadedDocument) (string, error) {
	return "page one text", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "page two is corrupt", nil)
}

func TestExtractUploadDropsPartialText(t *testing.T) {
	p := New(partialExtractor{}, nil, testLogger)
	st := session.NewAppState("partial")
	st.ResumeText = "previous"

	text, err := p.ExtractUpload(context.Background(), "cv.pdf", []byte("%PDF"), extract.PurposeResume)
	require.Error(t, err)
	assert.Empty(t, text)

	_, err = p.LoadResume(context.Background(), st, "cv.pdf", []byte("%PDF"))
	require.Error(t, err)
	assert.Equal(t, "previous", st.ResumeText)
}

func TestCreateFromForm(t *testing.T) {
	form := types.FormData{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Phone:      "555-0100",
		Education:  "Self-taught",
		Experience: "Analytical Engine",
		Skills:     "Mathematics",
		Hobbies:    "Poetry",
	}

	f := newFixture(t)
	f.create.replies = []string{"# Ada Lovelace"}

	doc, err := f.p.CreateFromForm(context.Background(), f.st, form)
	require.NoError(t, err)
	assert.Equal(t, types.ResumeCreated, doc.Kind)
	assert.Equal(t, "# Ada Lovelace", f.st.NewResume)
	assert.Contains(t, f.create.prompts[0], "Hobbies (Optional):\nPoetry\n")
}

func TestCreateFromFormMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.CreateFromForm(context.Background(), f.st, types.FormData{Name: "Ada", Email: " "})
	require.Error(t, err)
	assert.Empty(t, f.create.prompts)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeMissingInput, appErr.Code)
	assert.Equal(t, []string{"Email", "Phone Number", "Education", "Work Experience", "Skills"}, appErr.Context["missing_fields"])
	assert.True(t, strings.HasPrefix(appErr.Message, "Please fill in all mandatory fields"))
}

type recorder struct {
	extractions int
	exports     []string
}

func (r *recorder) RecordExtraction(context.Context, types.DocumentKind, time.Duration, error) {
	r.extractions++
}

func (r *recorder) RecordExport(_ context.Context, format string, _ error) {
	r.exports = append(r.exports, format)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.p.SetRecorder(rec)
	f.st.BoostedResume = "# Jane\n- Go"
	f.st.CustomUpdatedResume = "# Custom"
	f.st.NewResume = "# New"

	tests := []struct {
		kind     types.ResumeKind
		format   string
		filename string
		mime     string
	}{
		{kind: types.ResumeBoosted, format: "md", filename: "optimized_resume.md", mime: render.MIMEMarkdown},
		{kind: types.ResumeBoosted, format: "html", filename: "optimized_resume.html", mime: render.MIMEHTML},
		{kind: types.ResumeBoosted, format: "docx", filename: "optimized_resume.docx", mime: render.MIMEDOCX},
		{kind: types.ResumeCustom, format: "docx", filename: "custom_resume.docx", mime: render.MIMEDOCX},
		{kind: types.ResumeCreated, format: "md", filename: "new_resume.md", mime: render.MIMEMarkdown},
	}

	for _, tt := range tests {
		art, err := f.p.Export(context.Background(), f.st, tt.kind, tt.format)
		require.NoError(t, err)
		assert.Equal(t, tt.filename, art.Filename)
		assert.Equal(t, tt.mime, art.MIME)
	}
	assert.Len(t, rec.exports, len(tests))
	assert.Empty(t, f.st.Notices)
}

func TestExportFailures(t *testing.T) {
	f := newFixture(t)
	f.st.BoostedResume = "# Jane"

	_, err := f.p.Export(context.Background(), f.st, types.ResumeBoosted, "pdf")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodePDFExportUnsupported, appErr.Code)

	_, err = f.p.Export(context.Background(), f.st, types.ResumeCustom, "md")
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	_, err = f.p.Export(context.Background(), f.st, types.ResumeOriginal, "md")
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	assert.Len(t, f.st.Notices, 3)
}

func TestMissingGateway(t *testing.T) {
	p := New(extract.NewServiceWith(nil, 1, testLogger), nil, testLogger)
	st := session.NewAppState("x")
	st.ResumeText, st.JobDescription = "R", "J"

	_, err := p.Analyze(context.Background(), st)
	assert.Equal(t, errors.ErrorTypeInternal, errors.TypeOf(err))
}
