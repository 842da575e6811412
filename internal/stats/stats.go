// Package stats computes derived read views over the project collection.
// Everything here is a pure projection, recomputed on every read.
package stats

import (
	"sort"

	"github.com/fairwind/fcr/internal/models"
)

// Unreviewed is the risk bucket for projects without an AI review.
const Unreviewed = "unreviewed"

// Summary is the dashboard headline view.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Summarize counts projects: completed are those in ai_completed or
// approved, pending are drafts.
func Summarize(projects []*models.Project) Summary {
	s := Summary{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case models.StatusAICompleted, models.StatusApproved:
			s.Completed++
		case models.StatusDraft:
			s.Pending++
		}
	}
	return s
}

// Bucket is one entry of a frequency distribution.
type Bucket struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distributions holds the three frequency views used for rendering.
type Distributions struct {
	Risk     []Bucket `json:"risk"`
	Status   []Bucket `json:"status"`
	Category []Bucket `json:"category"`
}

var statusOrder = []models.ProjectStatus{
	models.StatusDraft,
	models.StatusAIReviewing,
	models.StatusAICompleted,
	models.StatusDeptReviewing,
	models.StatusApproved,
}

var riskOrder = []string{
	string(models.RiskHigh),
	string(models.RiskMedium),
	string(models.RiskLow),
	Unreviewed,
}

// Distribute computes frequency distributions over overall risk (or
// "unreviewed"), status, and finding category across all reviews.
func Distribute(projects []*models.Project) Distributions {
	riskCounts := map[string]int{}
	statusCounts := map[string]int{}
	categoryCounts := map[string]int{}
	findings := 0

	for _, p := range projects {
		statusCounts[string(p.Status)]++
		if p.AIReview == nil {
			riskCounts[Unreviewed]++
			continue
		}
		riskCounts[string(p.AIReview.OverallRisk)]++
		for _, f := range p.AIReview.RiskItems {
			categoryCounts[f.Category]++
			findings++
		}
	}

	d := Distributions{
		Risk:     []Bucket{},
		Status:   []Bucket{},
		Category: []Bucket{},
	}
	for _, key := range riskOrder {
		if n := riskCounts[key]; n > 0 {
			d.Risk = append(d.Risk, Bucket{Key: key, Count: n, Percent: percent(n, len(projects))})
		}
	}
	for _, st := range statusOrder {
		if n := statusCounts[string(st)]; n > 0 {
			d.Status = append(d.Status, Bucket{Key: string(st), Count: n, Percent: percent(n, len(projects))})
		}
	}

	categories := make([]string, 0, len(categoryCounts))
	for c := range categoryCounts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categoryCounts[categories[i]] != categoryCounts[categories[j]] {
			return categoryCounts[categories[i]] > categoryCounts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	for _, c := range categories {
		n := categoryCounts[c]
		d.Category = append(d.Category, Bucket{Key: c, Count: n, Percent: percent(n, findings)})
	}
	return d
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
