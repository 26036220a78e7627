package pipeline

// StageName identifies one of the seven agents.
type StageName string

const (
	StageMarketResearch  StageName = "market_research"
	StageKeywordAnalyzer StageName = "keyword_analyzer"
	StageContentPlanner  StageName = "content_planner"
	StageSEOOptimizer    StageName = "seo_optimizer"
	StageContentWriter   StageName = "content_writer"
	StageQualityChecker  StageName = "quality_checker"
	StagePublisher       StageName = "publisher"
)

var stageOrder = []StageName{
	StageMarketResearch,
	StageKeywordAnalyzer,
	StageContentPlanner,
	StageSEOOptimizer,
	StageContentWriter,
	StageQualityChecker,
	StagePublisher,
}

var displayNames = map[StageName]string{
	StageMarketResearch:  "Market Research",
	StageKeywordAnalyzer: "Keyword Analysis",
	StageContentPlanner:  "Content Planning",
	StageSEOOptimizer:    "SEO Optimization",
	StageContentWriter:   "Content Writing",
	StageQualityChecker:  "Quality Check",
	StagePublisher:       "Publishing",
}

// Stages returns the stages in execution order.
func Stages() []StageName {
	out := make([]StageName, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// DisplayName is the human label of the stage.
func (s StageName) DisplayName() string {
	if n, ok := displayNames[s]; ok {
		return n
	}
	return string(s)
}

// Index is the 1-based position of the stage, 0 if unknown.
func (s StageName) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// IsValid reports whether s is a known stage.
func (s StageName) IsValid() bool {
	return s.Index() > 0
}

// IsCritical reports whether a failure of this stage ends the run.
// Nothing downstream can work without an article.
func (s StageName) IsCritical() bool {
	return s == StageContentWriter
}

// StageStatus is the lifecycle of a single stage within a run.
type StageStatus string

const (
	StageStatusPending   StageStatus = "PENDING"
	StageStatusRunning   StageStatus = "RUNNING"
	StageStatusSucceeded StageStatus = "SUCCEEDED"
	StageStatusFailed    StageStatus = "FAILED"
	StageStatusSkipped   StageStatus = "SKIPPED"
)

// IsTerminal reports whether the stage has finished one way or another.
func (s StageStatus) IsTerminal() bool {
	return s == StageStatusSucceeded || s == StageStatusFailed || s == StageStatusSkipped
}
