package pipeline

import (
	"fmt"
)

// State is the data passed from stage to stage during a run.
type State struct {
	Brief           Brief
	MarketResearch  *MarketResearch
	KeywordAnalysis *KeywordAnalysis
	ContentPlan     *ContentPlan
	SEOOptimization *SEOOptimization
	ContentDraft    *ContentDraft
	QualityReport   *QualityReport
	Publication     *Publication
}

// NewState starts a state from a brief.
func NewState(b Brief) *State {
	return &State{Brief: b}
}

// Apply stores a stage artifact in its slot.
func (s *State) Apply(stage StageName, artifact any) error {
	switch a := artifact.(type) {
	case *MarketResearch:
		s.MarketResearch = a
	case *KeywordAnalysis:
		s.KeywordAnalysis = a
	case *ContentPlan:
		s.ContentPlan = a
	case *SEOOptimization:
		s.SEOOptimization = a
	case *ContentDraft:
		s.ContentDraft = a
	case *QualityReport:
		s.QualityReport = a
	case *Publication:
		s.Publication = a
	default:
		return fmt.Errorf("pipeline: stage %s produced unsupported artifact %T", stage, artifact)
	}
	return nil
}

// Artifact returns the artifact stored for a stage, or nil.
func (s *State) Artifact(stage StageName) any {
	switch stage {
	case StageMarketResearch:
		if s.MarketResearch != nil {
			return s.MarketResearch
		}
	case StageKeywordAnalyzer:
		if s.KeywordAnalysis != nil {
			return s.KeywordAnalysis
		}
	case StageContentPlanner:
		if s.ContentPlan != nil {
			return s.ContentPlan
		}
	case StageSEOOptimizer:
		if s.SEOOptimization != nil {
			return s.SEOOptimization
		}
	case StageContentWriter:
		if s.ContentDraft != nil {
			return s.ContentDraft
		}
	case StageQualityChecker:
		if s.QualityReport != nil {
			return s.QualityReport
		}
	case StagePublisher:
		if s.Publication != nil {
			return s.Publication
		}
	}
	return nil
}
