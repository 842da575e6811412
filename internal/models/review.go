package models

// RiskLevel is one of the ordered risk levels 低 < 中 < 高.
type RiskLevel string

const (
	RiskLow    RiskLevel = "低"
	RiskMedium RiskLevel = "中"
	RiskHigh   RiskLevel = "高"
)

// Rank returns the ordering of a risk level. Unknown levels rank lowest.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// DispositionType is a user's decision on a finding.
type DispositionType string

const (
	DispositionAdopt     DispositionType = "adopt"
	DispositionException DispositionType = "exception"
	DispositionReject    DispositionType = "reject"
)

// Valid reports whether the disposition type is one of the known values.
func (d DispositionType) Valid() bool {
	switch d {
	case DispositionAdopt, DispositionException, DispositionReject:
		return true
	}
	return false
}

// Finding is one identified compliance risk within a review.
// Findings are immutable once produced; dispositions annotate them.
type Finding struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	Excerpt      string    `json:"excerpt"`
	Analysis     string    `json:"analysis"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	Suggestion   string    `json:"suggestion"`
	LawReference string    `json:"lawReference"`
}

// Disposition records a user's decision on one finding.
// Saving overwrites wholesale; no history of prior dispositions is kept.
type Disposition struct {
	Type DispositionType `json:"type"`
	Desc string          `json:"desc,omitempty"`
}

// AIReview is the structured result of one review cycle, owned by a project.
type AIReview struct {
	OverallRisk RiskLevel              `json:"overallRisk"`
	RiskItems   []Finding              `json:"riskItems"`
	Actions     map[string]Disposition `json:"actions"`
}

// OverallRiskOf computes the maximum risk level among findings,
// or 低 when there are none.
func OverallRiskOf(items []Finding) RiskLevel {
	overall := RiskLow
	for _, f := range items {
		if f.RiskLevel.Rank() > overall.Rank() {
			overall = f.RiskLevel
		}
	}
	return overall
}
