// Package workflow implements the project lifecycle state machine:
// draft → ai_reviewing → ai_completed → dept_reviewing → approved.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairwind/fcr/internal/models"
	"github.com/fairwind/fcr/internal/review"
	"github.com/fairwind/fcr/internal/store"
)

// DefaultTimeout bounds one review generation call.
const DefaultTimeout = 120 * time.Second

// Service coordinates lifecycle transitions over the store.
type Service struct {
	store   store.Store
	gen     review.Generator
	timeout time.Duration
}

// New creates a lifecycle service. A zero timeout falls back to DefaultTimeout.
func New(s store.Store, g review.Generator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{store: s, gen: g, timeout: timeout}
}

// Create validates required descriptive fields and persists a new project
// in draft with no review.
func (s *Service) Create(ctx context.Context, p *models.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return models.Validationf("project name is required")
	}
	if strings.TrimSpace(p.PolicyTitle) == "" {
		return models.Validationf("policy title is required")
	}
	p.Status = models.StatusDraft
	p.AIReview = nil
	return s.store.CreateProject(ctx, p)
}

// StartReview moves a draft project to ai_reviewing and launches generation
// in the background. Retrying while a review is in flight is an idempotent
// no-op; starting from any later status is rejected.
func (s *Service) StartReview(ctx context.Context, id string) (*models.Project, error) {
	p, started, err := s.begin(ctx, id)
	if err != nil || !started {
		return p, err
	}
	go s.completeReview(p.ID)
	return p, nil
}

// RunReview is the synchronous variant of StartReview: it performs the same
// guarded transition, then blocks until generation completes or fails.
func (s *Service) RunReview(ctx context.Context, id string) (*models.Project, error) {
	p, started, err := s.begin(ctx, id)
	if err != nil {
		return nil, err
	}
	if !started {
		return p, nil
	}
	if err := s.generate(ctx, p.ID); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, id)
}

// begin applies the status guard and marks the project ai_reviewing.
// started is false on the idempotent retry path, where generation is
// already in flight and must not be launched again.
func (s *Service) begin(ctx context.Context, id string) (*models.Project, bool, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, false, err
	}

	switch p.Status {
	case models.StatusAIReviewing:
		return p, false, nil
	case models.StatusDraft:
	default:
		return nil, false, models.Validationf("cannot start review from status %s", p.Status)
	}

	p.Status = models.StatusAIReviewing
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// completeReview runs generation on a fresh timeout-bounded context.
// Failures roll the project back to draft so it is never parked in
// ai_reviewing indefinitely.
func (s *Service) completeReview(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.generate(ctx, id); err != nil {
		slog.Warn("review generation failed", "project", id, "error", err)
	}
}

// generate invokes the generator and persists result and status together,
// all-or-nothing with respect to the single project touched.
func (s *Service) generate(ctx context.Context, id string) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.gen.GenerateReview(ctx, p)
	if err != nil {
		p.Status = models.StatusDraft
		p.AIReview = nil
		if rbErr := s.store.UpdateProject(context.WithoutCancel(ctx), p); rbErr != nil {
			slog.Warn("rollback to draft failed", "project", id, "error", rbErr)
		}
		return err
	}

	p.AIReview = result
	p.Status = models.StatusAICompleted
	return s.store.UpdateProject(ctx, p)
}

// SaveDispositions merges the user's per-finding decisions into the review.
// Keys must reference findings of the current review; absent keys are left
// untouched, present keys are overwritten wholesale.
func (s *Service) SaveDispositions(ctx context.Context, id string, actions map[string]models.Disposition) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AIReview == nil {
		return nil, models.Validationf("project has no AI review yet")
	}

	known := make(map[string]bool, len(p.AIReview.RiskItems))
	for _, f := range p.AIReview.RiskItems {
		known[f.ID] = true
	}
	for findingID, d := range actions {
		if !known[findingID] {
			return nil, fmt.Errorf("finding %s: %w", findingID, models.ErrNotFound)
		}
		if !d.Type.Valid() {
			return nil, models.Validationf("invalid disposition type: %s", d.Type)
		}
	}

	if err := s.store.SaveDispositions(ctx, id, actions); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, id)
}

// SubmitForDeptReview moves a reviewed project to departmental review.
// Fails with no state change when the project has no review.
func (s *Service) SubmitForDeptReview(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AIReview == nil {
		return nil, models.Validationf("project has no AI review yet")
	}
	if p.Status != models.StatusAICompleted {
		return nil, models.Validationf("cannot submit from status %s", p.Status)
	}

	p.Status = models.StatusDeptReviewing
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Approve concludes departmental review. This is the external action that
// makes the approved status reachable.
func (s *Service) Approve(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusDeptReviewing {
		return nil, models.Validationf("cannot approve from status %s", p.Status)
	}

	p.Status = models.StatusApproved
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
