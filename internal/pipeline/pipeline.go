// Package pipeline implements the user-triggered operations: loading the
// resume and job description, analysis, boosting, custom edits, creation
// from a form, and export.
//
// Every operation receives the session state explicitly. A failed operation
// records a notice on the state, leaves its earlier fields untouched and
// returns the error; nothing is retried.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/ai"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/extract"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/postprocess"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/prompt"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/render"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/session"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DocumentExtractor turns an uploaded file into text.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc types.UploadedDocument) (string, error)
}

// Recorder receives extraction and export outcomes for metrics.
type Recorder interface {
	RecordExtraction(ctx context.Context, kind types.DocumentKind, duration time.Duration, err error)
	RecordExport(ctx context.Context, format string, err error)
}

// Export file base names per document kind.
var exportNames = map[types.ResumeKind]string{
	types.ResumeBoosted: "optimized_resume",
	types.ResumeCustom:  "custom_resume",
	types.ResumeCreated: "new_resume",
}

// Pipeline owns the collaborators every operation needs.
type Pipeline struct {
	extractor DocumentExtractor
	gateways  map[types.Operation]ai.Gateway
	recorder  Recorder
	logger    *errors.Logger
	tracer    trace.Tracer
}

// New creates a pipeline. gateways must hold one entry per operation used.
func New(extractor DocumentExtractor, gateways map[types.Operation]ai.Gateway, logger *errors.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		gateways:  gateways,
		logger:    logger,
		tracer:    otel.Tracer("atsopt.pipeline"),
	}
}

// SetRecorder registers r for extraction and export outcomes.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// fail records err on the state and logs it.
func (p *Pipeline) fail(st *session.AppState, span trace.Span, err error, op string) error {
	st.AddNotice(err)
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("success", false))
	p.logger.LogError(err, "Operation failed", "operation", op, "session_id", st.ID)
	return err
}

// ExtractUpload converts an uploaded file to text without touching any state.
// On failure it returns "" even when the extractor read part of the file, so
// callers never store a partial document.
func (p *Pipeline) ExtractUpload(ctx context.Context, filename string, data []byte, purpose extract.Purpose) (string, error) {
	kind, err := extract.KindFromFilename(filename, purpose)
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := p.extractor.Extract(ctx, types.UploadedDocument{Filename: filename, Kind: kind, Data: data})
	if p.recorder != nil {
		p.recorder.RecordExtraction(ctx, kind, time.Since(start), err)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// LoadResume extracts an uploaded resume into ResumeText.
func (p *Pipeline) LoadResume(ctx context.Context, st *session.AppState, filename string, data []byte) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.load_resume")
	defer span.End()
	span.SetAttributes(attribute.String("file.name", filename), attribute.Int("file.size", len(data)))

	text, err := p.ExtractUpload(ctx, filename, data, extract.PurposeResume)
	if err != nil {
		return "", p.fail(st, span, err, "load_resume")
	}

	if strings.TrimSpace(text) == "" {
		p.logger.Warn("Resume produced no text", "filename", filename, "session_id", st.ID)
	}
	st.ResumeText = text
	st.Touch()
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("text.length", len(text)))
	return text, nil
}

// LoadJobDescription sets JobDescription. Non-blank pasted text wins over an
// uploaded file.
func (p *Pipeline) LoadJobDescription(ctx context.Context, st *session.AppState, filename string, data []byte, pasted string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.load_job_description")
	defer span.End()

	if strings.TrimSpace(pasted) != "" {
		st.JobDescription = pasted
		st.Touch()
		span.SetAttributes(attribute.String("source", "pasted"), attribute.Bool("success", true))
		return pasted, nil
	}

	if filename == "" {
		return "", p.fail(st, span, errors.NewValidationError(errors.ErrCodeMissingInput,
			"Please upload a job description file or paste the job description", nil), "load_job_description")
	}

	span.SetAttributes(attribute.String("source", "file"), attribute.String("file.name", filename))
	text, err := p.ExtractUpload(ctx, filename, data, extract.PurposeJobDescription)
	if err != nil {
		return "", p.fail(st, span, err, "load_job_description")
	}

	st.JobDescription = text
	st.Touch()
	span.SetAttributes(attribute.Bool("success", true))
	return text, nil
}

func (p *Pipeline) gateway(op types.Operation) (ai.Gateway, error) {
	gw, ok := p.gateways[op]
	if !ok || gw == nil {
		return nil, errors.NewInternalError("GATEWAY_NOT_CONFIGURED",
			fmt.Sprintf("No AI gateway configured for %s", op), nil)
	}
	return gw, nil
}

// generate builds the prompt for op, calls its gateway and cleans the answer.
func (p *Pipeline) generate(ctx context.Context, op types.Operation, in prompt.Inputs) (string, *types.TokenUsage, error) {
	gw, err := p.gateway(op)
	if err != nil {
		return "", nil, err
	}

	text, err := prompt.Build(op, in)
	if err != nil {
		return "", nil, errors.NewInternalError("PROMPT_BUILD_FAILED", "Failed to build prompt", err)
	}

	out, usage, err := gw.Generate(ctx, text)
	if err != nil {
		return "", nil, err
	}
	return postprocess.Clean(out), usage, nil
}

// analyze scores resume against jobDescription.
func (p *Pipeline) analyze(ctx context.Context, resume, jobDescription string) (*types.AnalysisResult, error) {
	report, usage, err := p.generate(ctx, types.OperationAnalyze, prompt.Inputs{
		Resume:         resume,
		JobDescription: jobDescription,
	})
	if err != nil {
		return nil, err
	}

	score := postprocess.ExtractScore(report)
	display, clamped := postprocess.DisplayScore(score)
	if clamped {
		p.logger.Warn("ATS score out of range, clamped for display", "score", score, "display_score", display)
	}

	return &types.AnalysisResult{
		Score:           score,
		DisplayScore:    display,
		Report:          report,
		FormattedReport: postprocess.FormatReport(report),
		Usage:           usage,
	}, nil
}

func requireText(value, message string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingInput, message, nil)
	}
	return nil
}

// Analyze scores the loaded resume against the job description.
func (p *Pipeline) Analyze(ctx context.Context, st *session.AppState) (*types.AnalysisResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.analyze")
	defer span.End()

	if err := requireText(st.ResumeText, "Please upload your resume first"); err != nil {
		return nil, p.fail(st, span, err, "analyze")
	}
	if err := requireText(st.JobDescription, "Please provide the job description first"); err != nil {
		return nil, p.fail(st, span, err, "analyze")
	}

	result, err := p.analyze(ctx, st.ResumeText, st.JobDescription)
	if err != nil {
		return nil, p.fail(st, span, err, "analyze")
	}

	st.AnalysisReport = result.Report
	st.ATSScore = result.Score
	st.Touch()

	span.SetAttributes(attribute.Bool("success", true), attribute.Float64("ats.score", result.Score))
	p.logger.Info("Resume analyzed", "session_id", st.ID, "score", result.Score)
	return result, nil
}

// Boost revises the resume using the latest analysis and re-scores it. The
// state changes only when both steps succeed.
func (p *Pipeline) Boost(ctx context.Context, st *session.AppState) (*types.BoostResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.boost")
	defer span.End()

	if !st.HasAnalysis() {
		return nil, p.fail(st, span, errors.NewValidationError(errors.ErrCodeMissingInput,
			"Please analyze the resume before boosting it", nil), "boost")
	}

	boosted, usage, err := p.generate(ctx, types.OperationBoost, prompt.Inputs{
		Resume:         st.ResumeText,
		JobDescription: st.JobDescription,
		Report:         st.AnalysisReport,
	})
	if err != nil {
		return nil, p.fail(st, span, err, "boost")
	}

	analysis, err := p.analyze(ctx, boosted, st.JobDescription)
	if err != nil {
		return nil, p.fail(st, span, err, "boost")
	}

	st.BoostedResume = boosted
	st.BoostedATSScore = analysis.Score
	st.Touch()

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Float64("ats.score.before", st.ATSScore),
		attribute.Float64("ats.score.after", analysis.Score),
	)
	p.logger.Info("Resume boosted",
		"session_id", st.ID,
		"score_before", st.ATSScore,
		"score_after", analysis.Score)

	return &types.BoostResult{
		Resume:   types.ResumeDocument{Kind: types.ResumeBoosted, Markdown: boosted, Usage: usage},
		Analysis: *analysis,
	}, nil
}

// CustomUpdate edits a resume according to free-form instructions. A
// non-blank resumeOverride is used instead of the loaded resume.
func (p *Pipeline) CustomUpdate(ctx context.Context, st *session.AppState, resumeOverride, instructions string) (*types.ResumeDocument, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.custom_update")
	defer span.End()

	source := st.ResumeText
	if strings.TrimSpace(resumeOverride) != "" {
		source = resumeOverride
	}
	span.SetAttributes(attribute.Bool("resume.override", source == resumeOverride && resumeOverride != ""))

	if err := requireText(source, "Please upload a resume to edit"); err != nil {
		return nil, p.fail(st, span, err, "custom_update")
	}
	if err := requireText(instructions, "Please enter the custom instructions"); err != nil {
		return nil, p.fail(st, span, err, "custom_update")
	}

	updated, usage, err := p.generate(ctx, types.OperationCustom, prompt.Inputs{
		Resume:             source,
		CustomInstructions: instructions,
	})
	if err != nil {
		return nil, p.fail(st, span, err, "custom_update")
	}

	st.CustomUpdatedResume = updated
	st.Touch()
	span.SetAttributes(attribute.Bool("success", true))
	return &types.ResumeDocument{Kind: types.ResumeCustom, Markdown: updated, Usage: usage}, nil
}

// CustomUpdateFromUpload runs CustomUpdate with the text of an uploaded
// resume as the override. An empty filename means no upload.
func (p *Pipeline) CustomUpdateFromUpload(ctx context.Context, st *session.AppState, filename string, data []byte, instructions string) (*types.ResumeDocument, error) {
	override := ""
	if filename != "" {
		ctx, span := p.tracer.Start(ctx, "pipeline.extract_custom_resume")
		span.SetAttributes(attribute.String("file.name", filename), attribute.Int("file.size", len(data)))
		text, err := p.ExtractUpload(ctx, filename, data, extract.PurposeResume)
		if err != nil {
			err = p.fail(st, span, err, "custom_update")
			span.End()
			return nil, err
		}
		span.End()
		override = text
	}
	return p.CustomUpdate(ctx, st, override, instructions)
}

// MissingFormFields returns the labels of blank mandatory fields.
func MissingFormFields(f types.FormData) []string {
	mandatory := []struct {
		label, value string
	}{
		{"Full Name", f.Name},
		{"Email", f.Email},
		{"Phone Number", f.Phone},
		{"Education", f.Education},
		{"Work Experience", f.Experience},
		{"Skills", f.Skills},
	}

	var missing []string
	for _, m := range mandatory {
		if strings.TrimSpace(m.value) == "" {
			missing = append(missing, m.label)
		}
	}
	return missing
}

// CreateFromForm writes a new resume from form fields.
func (p *Pipeline) CreateFromForm(ctx context.Context, st *session.AppState, form types.FormData) (*types.ResumeDocument, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.create")
	defer span.End()

	if missing := MissingFormFields(form); len(missing) > 0 {
		err := errors.NewValidationError(errors.ErrCodeMissingInput,
			"Please fill in all mandatory fields: "+strings.Join(missing, ", "), nil).
			WithContext("missing_fields", missing)
		return nil, p.fail(st, span, err, "create")
	}

	created, usage, err := p.generate(ctx, types.OperationCreate, prompt.Inputs{Form: form})
	if err != nil {
		return nil, p.fail(st, span, err, "create")
	}

	st.NewResume = created
	st.Touch()
	span.SetAttributes(attribute.Bool("success", true))
	return &types.ResumeDocument{Kind: types.ResumeCreated, Markdown: created, Usage: usage}, nil
}

// Export renders one of the generated resumes as a downloadable file.
func (p *Pipeline) Export(ctx context.Context, st *session.AppState, kind types.ResumeKind, format string) (*render.Artifact, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.export")
	defer span.End()
	span.SetAttributes(attribute.String("document.kind", string(kind)), attribute.String("format", format))

	art, err := p.export(st, kind, format)
	if p.recorder != nil {
		p.recorder.RecordExport(ctx, render.ParseFormat(format), err)
	}
	if err != nil {
		return nil, p.fail(st, span, err, "export")
	}

	span.SetAttributes(attribute.Bool("success", true), attribute.Int("artifact.size", len(art.Data)))
	return art, nil
}

func (p *Pipeline) export(st *session.AppState, kind types.ResumeKind, format string) (*render.Artifact, error) {
	name, ok := exportNames[kind]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Cannot export document %q, expected boosted, custom or created", kind), nil)
	}

	md, ok := st.Resume(kind)
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeMissingInput,
			fmt.Sprintf("No %s resume is available to export yet", kind), nil)
	}

	return render.Export(name, md, format)
}
