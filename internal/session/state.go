// Package session holds per-user application state and the in-memory store
// the HTTP server keeps it in.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"
	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// AppState is everything one user has produced so far. Workflow operations
// receive it explicitly and update it in place.
//
// Callers sharing a state between goroutines must hold Lock for the whole
// operation.
type AppState struct {
	mu sync.Mutex

	ID             string
	ResumeText     string
	JobDescription string

	AnalysisReport string
	ATSScore       float64

	BoostedResume   string
	BoostedATSScore float64

	CustomUpdatedResume string
	NewResume           string

	Notices   []types.Notice
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAppState returns an empty state stamped with the current time.
func NewAppState(id string) *AppState {
	now := time.Now()
	return &AppState{ID: id, CreatedAt: now, UpdatedAt: now}
}

func (s *AppState) Lock()   { s.mu.Lock() }
func (s *AppState) Unlock() { s.mu.Unlock() }

// Touch records a modification.
func (s *AppState) Touch() {
	s.UpdatedAt = time.Now()
}

// AddNotice records err as a user-visible notice and returns it.
func (s *AppState) AddNotice(err error) types.Notice {
	n := types.Notice{
		Kind:    string(errors.TypeOf(err)),
		Message: errors.UserMessage(err),
		Time:    time.Now(),
	}
	if appErr, ok := errors.AsAppError(err); ok {
		n.Code = appErr.Code
	}
	s.Notices = append(s.Notices, n)
	s.Touch()
	return n
}

// HasAnalysis reports whether an analysis report is available.
func (s *AppState) HasAnalysis() bool {
	return s.AnalysisReport != ""
}

// Resume returns the stored document of the given kind and whether it exists.
func (s *AppState) Resume(kind types.ResumeKind) (string, bool) {
	var md string
	switch kind {
	case types.ResumeOriginal:
		md = s.ResumeText
	case types.ResumeBoosted:
		md = s.BoostedResume
	case types.ResumeCustom:
		md = s.CustomUpdatedResume
	case types.ResumeCreated:
		md = s.NewResume
	}
	return md, md != ""
}

// Snapshot is a read-only copy of AppState suitable for serialization.
type Snapshot struct {
	ID                  string         `json:"id"`
	ResumeText          string         `json:"resumeText"`
	JobDescription      string         `json:"jobDescription"`
	AnalysisReport      string         `json:"analysisReport"`
	ATSScore            float64        `json:"atsScore"`
	BoostedResume       string         `json:"boostedResume"`
	BoostedATSScore     float64        `json:"boostedAtsScore"`
	CustomUpdatedResume string         `json:"customUpdatedResume"`
	NewResume           string         `json:"newResume"`
	Notices             []types.Notice `json:"notices"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// Snapshot copies the state. The caller must hold the lock if the state is shared.
func (s *AppState) Snapshot() Snapshot {
	notices := slices.Clone(s.Notices)
	if notices == nil {
		notices = []types.Notice{}
	}
	return Snapshot{
		ID:                  s.ID,
		ResumeText:          s.ResumeText,
		JobDescription:      s.JobDescription,
		AnalysisReport:      s.AnalysisReport,
		ATSScore:            s.ATSScore,
		BoostedResume:       s.BoostedResume,
		BoostedATSScore:     s.BoostedATSScore,
		CustomUpdatedResume: s.CustomUpdatedResume,
		NewResume:           s.NewResume,
		Notices:             notices,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
