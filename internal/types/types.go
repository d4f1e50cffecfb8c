package types

import "time"

// Operation names one kind of model request.
type Operation string

const (
	OperationAnalyze Operation = "analyze"
	OperationBoost   Operation = "boost"
	OperationCustom  Operation = "custom"
	OperationCreate  Operation = "create"
)

// Operations lists every operation in pipeline order.
var Operations = []Operation{OperationAnalyze, OperationBoost, OperationCustom, OperationCreate}

// DocumentKind is the declared kind of an uploaded file.
type DocumentKind string

const (
	KindText DocumentKind = "text"
	KindPDF  DocumentKind = "pdf"
	KindWord DocumentKind = "word"
)

// UploadedDocument is a file as received from the user.
type UploadedDocument struct {
	Filename string
	Kind     DocumentKind
	Data     []byte
}

// TokenUsage holds token counts reported by a model provider.
type TokenUsage struct {
	PromptTokens     int32 `json:"promptTokens"`
	CompletionTokens int32 `json:"completionTokens"`
	TotalTokens      int32 `json:"totalTokens"`
}

// Add accumulates u2 into u. Nil values are ignored.
func (u *TokenUsage) Add(u2 *TokenUsage) {
	if u == nil || u2 == nil {
		return
	}
	u.PromptTokens += u2.PromptTokens
	u.CompletionTokens += u2.CompletionTokens
	u.TotalTokens += u2.TotalTokens
}

// AnalysisResult is a cleaned analysis report and the score parsed from it.
type AnalysisResult struct {
	// Score is the value parsed from the report, unclamped.
	Score float64 `json:"score"`
	// DisplayScore is Score clamped to [0,100].
	DisplayScore    float64     `json:"displayScore"`
	Report          string      `json:"report"`
	FormattedReport string      `json:"formattedReport"`
	Usage           *TokenUsage `json:"usage,omitempty"`
}

// ResumeKind identifies which revision a resume document is.
type ResumeKind string

const (
	ResumeOriginal ResumeKind = "original"
	ResumeBoosted  ResumeKind = "boosted"
	ResumeCustom   ResumeKind = "custom"
	ResumeCreated  ResumeKind = "created"
)

// ResumeDocument is one immutable Markdown revision of a resume.
type ResumeDocument struct {
	Kind     ResumeKind  `json:"kind"`
	Markdown string      `json:"markdown"`
	Usage    *TokenUsage `json:"usage,omitempty"`
}

// BoostResult is a boosted resume together with its re-analysis.
type BoostResult struct {
	Resume   ResumeDocument `json:"resume"`
	Analysis AnalysisResult `json:"analysis"`
}

// FormData holds the fields of the create-from-form operation.
type FormData struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	LinkedIn       string `json:"linkedin,omitempty"`
	Address        string `json:"address,omitempty"`
	Education      string `json:"education"`
	Experience     string `json:"experience"`
	Skills         string `json:"skills"`
	Projects       string `json:"projects,omitempty"`
	Certifications string `json:"certifications,omitempty"`
	Achievements   string `json:"achievements,omitempty"`
	Hobbies        string `json:"hobbies,omitempty"`
}

// Notice is a user-visible record of a failure that did not end the session.
type Notice struct {
	Kind    string    `json:"kind"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ExtractionResult is the text read from one uploaded file.
type ExtractionResult struct {
	Filename string       `json:"filename"`
	Kind     DocumentKind `json:"kind"`
	Engine   string       `json:"engine"`
	Text     string       `json:"text"`
}
