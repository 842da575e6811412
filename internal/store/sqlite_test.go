package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwind/fcr/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReview() *models.AIReview {
	items := []models.Finding{
		{ID: newULID(), Category: "市场准入和退出", Excerpt: "限定本地企业", Analysis: "排除外地经营者", RiskLevel: models.RiskHigh, Suggestion: "删除限定条款", LawReference: "《公平竞争审查条例》第十条"},
		{ID: newULID(), Category: "商品和要素自由流动", Excerpt: "外地商品需备案", Analysis: "增设流通障碍", RiskLevel: models.RiskMedium, Suggestion: "取消备案要求", LawReference: "《公平竞争审查条例》第十二条"},
	}
	return &models.AIReview{
		OverallRisk: models.OverallRiskOf(items),
		RiskItems:   items,
		Actions:     map[string]models.Disposition{},
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{
		Name:         "市场监管政策审查",
		PolicyTitle:  "关于促进本地产业发展的若干措施",
		Organization: "市发改委",
		DraftType:    "规范性文件",
		Scope:        "全市",
	}
	err := s.CreateProject(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, models.StatusDraft, p.Status)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.PolicyTitle, got.PolicyTitle)
	assert.Equal(t, p.Organization, got.Organization)
	assert.Nil(t, got.AIReview)

	got.Scope = "省内"
	err = s.UpdateProject(ctx, got)
	require.NoError(t, err)

	got2, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "省内", got2.Scope)

	projects, err := s.ListProjects(ctx, ProjectListFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	projects, err = s.ListProjects(ctx, ProjectListFilter{Status: models.StatusDraft})
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	projects, err = s.ListProjects(ctx, ProjectListFilter{Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, projects, 0)

	err = s.DeleteProject(ctx, p.ID)
	require.NoError(t, err)

	_, err = s.GetProject(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestProject_ReviewRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "proj", PolicyTitle: "title"}
	require.NoError(t, s.CreateProject(ctx, p))

	p.AIReview = sampleReview()
	p.Status = models.StatusAICompleted
	require.NoError(t, s.UpdateProject(ctx, p))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AIReview)
	assert.Equal(t, models.StatusAICompleted, got.Status)
	assert.Equal(t, models.RiskHigh, got.AIReview.OverallRisk)
	assert.Equal(t, p.AIReview.RiskItems, got.AIReview.RiskItems)
	assert.Empty(t, got.AIReview.Actions)
}

func TestSaveDispositions_Merge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "proj", PolicyTitle: "title"}
	require.NoError(t, s.CreateProject(ctx, p))
	p.AIReview = sampleReview()
	p.Status = models.StatusAICompleted
	require.NoError(t, s.UpdateProject(ctx, p))

	first := p.AIReview.RiskItems[0].ID
	second := p.AIReview.RiskItems[1].ID

	err := s.SaveDispositions(ctx, p.ID, map[string]models.Disposition{
		first: {Type: models.DispositionAdopt, Desc: "按建议修改"},
	})
	require.NoError(t, err)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.AIReview.Actions, 1)
	assert.Equal(t, models.DispositionAdopt, got.AIReview.Actions[first].Type)

	// Saving a disposition for the second finding must not clear the first.
	err = s.SaveDispositions(ctx, p.ID, map[string]models.Disposition{
		second: {Type: models.DispositionReject},
	})
	require.NoError(t, err)

	got, err = s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.AIReview.Actions, 2)

	// Overwriting a key replaces it wholesale.
	err = s.SaveDispositions(ctx, p.ID, map[string]models.Disposition{
		first: {Type: models.DispositionException, Desc: "适用例外规定"},
	})
	require.NoError(t, err)

	got, err = s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.AIReview.Actions, 2)
	assert.Equal(t, models.DispositionException, got.AIReview.Actions[first].Type)
	assert.Equal(t, "适用例外规定", got.AIReview.Actions[first].Desc)
}

func TestSaveDispositions_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "proj", PolicyTitle: "title"}
	require.NoError(t, s.CreateProject(ctx, p))
	p.AIReview = sampleReview()
	p.Status = models.StatusAICompleted
	require.NoError(t, s.UpdateProject(ctx, p))

	input := map[string]models.Disposition{
		p.AIReview.RiskItems[0].ID: {Type: models.DispositionAdopt, Desc: "ok"},
	}
	require.NoError(t, s.SaveDispositions(ctx, p.ID, input))
	first, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, s.SaveDispositions(ctx, p.ID, input))
	second, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, first.AIReview.Actions, second.AIReview.Actions)
}

func TestSaveDispositions_UnknownProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SaveDispositions(ctx, "nope", map[string]models.Disposition{
		"f1": {Type: models.DispositionAdopt},
	})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestDeleteProject_CascadesDispositions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "proj", PolicyTitle: "title"}
	require.NoError(t, s.CreateProject(ctx, p))
	p.AIReview = sampleReview()
	p.Status = models.StatusAICompleted
	require.NoError(t, s.UpdateProject(ctx, p))
	require.NoError(t, s.SaveDispositions(ctx, p.ID, map[string]models.Disposition{
		p.AIReview.RiskItems[0].ID: {Type: models.DispositionAdopt},
	}))

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispositions WHERE project_id = ?", p.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
