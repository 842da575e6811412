package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwind/fcr/internal/models"
)

func TestRequestValidate(t *testing.T) {
	t.Run("empty content rejected", func(t *testing.T) {
		for _, content := range []string{"", "   ", "\n\t"} {
			req := &Request{Content: content}
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, models.IsValidation(err))
			assert.Equal(t, ErrEmptyContent, err.Error())
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		req := &Request{Content: "禁止向外地企业供货"}
		require.NoError(t, req.Validate())
		assert.Equal(t, DefaultBusinessType, req.BusinessType)
		assert.Equal(t, DefaultJurisdiction, req.Jurisdiction)
	})

	t.Run("explicit fields preserved", func(t *testing.T) {
		req := &Request{BusinessType: "procurement", Jurisdiction: "eu", Content: "x"}
		require.NoError(t, req.Validate())
		assert.Equal(t, "procurement", req.BusinessType)
		assert.Equal(t, "eu", req.Jurisdiction)
	})
}

func TestBuildPrompt(t *testing.T) {
	req := &Request{BusinessType: "general", Jurisdiction: "cn", Content: "仅限本地企业投标"}
	prompt := BuildPrompt(req)

	assert.Contains(t, prompt, "general")
	assert.Contains(t, prompt, "cn")
	assert.Contains(t, prompt, "仅限本地企业投标")
	assert.Contains(t, prompt, `"riskScore"`)
	assert.Contains(t, prompt, `"summary"`)
	assert.Contains(t, prompt, `"issues"`)
	assert.Contains(t, prompt, `"modelNote"`)
	assert.Contains(t, prompt, `"lawReference"`)
}

func TestParseRaw(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		obj, err := ParseRaw(`{"riskScore": 70}`)
		require.NoError(t, err)
		assert.Equal(t, float64(70), obj["riskScore"])
	})

	t.Run("fenced JSON", func(t *testing.T) {
		obj, err := ParseRaw("```json\n{\"summary\": \"ok\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "ok", obj["summary"])
	})

	t.Run("non-JSON payload", func(t *testing.T) {
		_, err := ParseRaw("I cannot review this document.")
		require.Error(t, err)
		assert.True(t, models.IsUpstreamFormat(err))
	})
}

func TestNormalize_Malformed(t *testing.T) {
	// Missing riskScore and issues as a non-sequence value must still
	// produce a well-shaped response without throwing.
	resp := Normalize(map[string]any{"issues": "not a list"})

	assert.Nil(t, resp.RiskScore)
	assert.Equal(t, "", resp.Summary)
	assert.Equal(t, []Issue{}, resp.Issues)
	assert.Equal(t, "", resp.ModelNote)
}

func TestNormalize_NilObject(t *testing.T) {
	resp := Normalize(nil)
	assert.Nil(t, resp.RiskScore)
	assert.Equal(t, []Issue{}, resp.Issues)
}

func TestNormalize_WellFormed(t *testing.T) {
	resp := Normalize(map[string]any{
		"riskScore": float64(85),
		"summary":   "存在高风险条款",
		"modelNote": "自动审查结果仅供参考",
		"issues": []any{
			map[string]any{
				"title":        "限定本地企业",
				"level":        "高",
				"description":  "排除外地经营者",
				"suggestion":   "删除限制",
				"lawReference": "《公平竞争审查条例》第十条",
			},
			"garbage entry",
		},
	})

	require.NotNil(t, resp.RiskScore)
	assert.Equal(t, 85, *resp.RiskScore)
	assert.Equal(t, "存在高风险条款", resp.Summary)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "限定本地企业", resp.Issues[0].Title)
	assert.Equal(t, "高", resp.Issues[0].Level)
	assert.Equal(t, "《公平竞争审查条例》第十条", resp.Issues[0].LawReference)
}

func TestNormalize_NonNumericRiskScore(t *testing.T) {
	resp := Normalize(map[string]any{"riskScore": "high"})
	assert.Nil(t, resp.RiskScore)
}

// fakeBackend returns a canned payload or error.
type fakeBackend struct {
	payload string
	err     error
}

func (f *fakeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	return f.payload, f.err
}

func TestServiceReview(t *testing.T) {
	t.Run("valid flow", func(t *testing.T) {
		svc := NewService(&fakeBackend{payload: `{"riskScore": 40, "summary": "s", "issues": [], "modelNote": "n"}`})
		resp, err := svc.Review(context.Background(), &Request{Content: "doc"})
		require.NoError(t, err)
		require.NotNil(t, resp.RiskScore)
		assert.Equal(t, 40, *resp.RiskScore)
		assert.Equal(t, "n", resp.ModelNote)
	})

	t.Run("empty content skips backend", func(t *testing.T) {
		svc := NewService(&fakeBackend{err: errors.New("backend must not be called")})
		_, err := svc.Review(context.Background(), &Request{Content: ""})
		require.Error(t, err)
		assert.True(t, models.IsValidation(err))
	})

	t.Run("unparsable payload", func(t *testing.T) {
		svc := NewService(&fakeBackend{payload: "not json"})
		_, err := svc.Review(context.Background(), &Request{Content: "doc"})
		require.Error(t, err)
		assert.True(t, models.IsUpstreamFormat(err))
	})

	t.Run("backend error passthrough", func(t *testing.T) {
		svc := NewService(&fakeBackend{err: errors.New("boom")})
		_, err := svc.Review(context.Background(), &Request{Content: "doc"})
		require.Error(t, err)
		assert.False(t, models.IsUpstreamFormat(err))
	})
}

func TestDemoGenerator(t *testing.T) {
	g := NewDemoGenerator()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		r, err := g.GenerateReview(ctx, &models.Project{Name: "p", PolicyTitle: "t"})
		require.NoError(t, err)

		assert.GreaterOrEqual(t, len(r.RiskItems), 2)
		assert.LessOrEqual(t, len(r.RiskItems), 4)
		assert.NotNil(t, r.Actions)
		assert.Empty(t, r.Actions)
		assert.Equal(t, models.OverallRiskOf(r.RiskItems), r.OverallRisk)

		seen := map[string]bool{}
		for j, f := range r.RiskItems {
			assert.NotEmpty(t, f.ID)
			assert.False(t, seen[f.ID], "finding ids must be unique within a review")
			seen[f.ID] = true
			assert.Equal(t, riskCycle[j%len(riskCycle)], f.RiskLevel)
			assert.NotEmpty(t, f.Category)
			assert.NotEmpty(t, f.LawReference)
		}
		// First finding is always 高, so the maximum is always 高.
		assert.Equal(t, models.RiskHigh, r.OverallRisk)
	}
}

func TestOverallRiskOf(t *testing.T) {
	assert.Equal(t, models.RiskLow, models.OverallRiskOf(nil))
	assert.Equal(t, models.RiskMedium, models.OverallRiskOf([]models.Finding{
		{RiskLevel: models.RiskLow}, {RiskLevel: models.RiskMedium},
	}))
	assert.Equal(t, models.RiskHigh, models.OverallRiskOf([]models.Finding{
		{RiskLevel: models.RiskHigh}, {RiskLevel: models.RiskLow},
	}))
}

func TestNewFindingID_NoCollisions(t *testing.T) {
	// Dispositions key on finding ids, so ids generated back to back within
	// the same millisecond must still be distinct.
	seen := make(map[string]bool, 2000)
	for i := 0; i < 2000; i++ {
		id := newFindingID()
		assert.False(t, seen[id], "duplicate finding id %s", id)
		seen[id] = true
	}
}

func TestFindingsFromIssues(t *testing.T) {
	items := FindingsFromIssues([]Issue{
		{Title: "限定本地企业", Level: "高", Description: "d", Suggestion: "s", LawReference: "l"},
		{Title: "未知等级", Level: "unknown"},
	})
	require.Len(t, items, 2)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, models.RiskHigh, items[0].RiskLevel)
	assert.Equal(t, models.RiskHigh, models.OverallRiskOf(items))
}
