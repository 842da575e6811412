package review

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fairwind/fcr/internal/models"
)

// Generator produces a complete AIReview for a project's policy document.
type Generator interface {
	GenerateReview(ctx context.Context, p *models.Project) (*models.AIReview, error)
}

// findingTemplate is one entry in the demonstration pool. Fields within a
// tuple are matched by category index.
type findingTemplate struct {
	category     string
	excerpt      string
	analysis     string
	suggestion   string
	lawReference string
}

var demoPool = []findingTemplate{
	{
		category:     "市场准入和退出",
		excerpt:      "仅限本地注册企业参与本项目投标",
		analysis:     "以注册地为条件限定经营者参与，排除了外地经营者的市场准入资格。",
		suggestion:   "删除注册地限制，改为对所有符合资质条件的经营者开放。",
		lawReference: "《公平竞争审查条例》第十条",
	},
	{
		category:     "商品和要素自由流动",
		excerpt:      "外地产品进入本市场需另行备案",
		analysis:     "对外地商品设置歧视性备案程序，妨碍商品在区域间自由流动。",
		suggestion:   "取消针对外地商品的单独备案要求，实行统一管理。",
		lawReference: "《公平竞争审查条例》第十二条",
	},
	{
		category:     "影响生产经营成本",
		excerpt:      "对本地龙头企业给予专项财政补贴",
		analysis:     "向特定经营者给予选择性财政奖励，变相降低其经营成本，损害公平竞争。",
		suggestion:   "改为面向全行业的普惠性政策，或明确公开的补贴标准和条件。",
		lawReference: "《公平竞争审查条例》第十四条",
	},
	{
		category:     "影响生产经营行为",
		excerpt:      "行业协会统一制定指导价格",
		analysis:     "强制或变相强制经营者实施价格协同，构成对经营行为的不当干预。",
		suggestion:   "删除统一定价安排，价格由经营者依法自主确定。",
		lawReference: "《公平竞争审查条例》第十五条",
	},
}

// riskCycle assigns risk levels to findings by cycling through the levels.
var riskCycle = []models.RiskLevel{models.RiskHigh, models.RiskMedium, models.RiskLow}

// DemoGenerator produces structurally valid reviews without a real backend,
// so the full lifecycle can be exercised for demonstration.
type DemoGenerator struct {
	rand *rand.Rand
}

// NewDemoGenerator creates a demo generator with its own entropy source.
func NewDemoGenerator() *DemoGenerator {
	return &DemoGenerator{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// GenerateReview returns 2-4 findings drawn from the fixed pool, risk levels
// cycling 高/中/低, overall risk equal to the maximum level present, and an
// empty actions map.
func (g *DemoGenerator) GenerateReview(ctx context.Context, p *models.Project) (*models.AIReview, error) {
	count := 2 + g.rand.Intn(3)
	start := g.rand.Intn(len(demoPool))

	items := make([]models.Finding, 0, count)
	for i := 0; i < count; i++ {
		tmpl := demoPool[(start+i)%len(demoPool)]
		items = append(items, models.Finding{
			ID:           newFindingID(),
			Category:     tmpl.category,
			Excerpt:      tmpl.excerpt,
			Analysis:     tmpl.analysis,
			RiskLevel:    riskCycle[i%len(riskCycle)],
			Suggestion:   tmpl.suggestion,
			LawReference: tmpl.lawReference,
		})
	}

	return &models.AIReview{
		OverallRisk: models.OverallRiskOf(items),
		RiskItems:   items,
		Actions:     map[string]models.Disposition{},
	}, nil
}

// BackendGenerator adapts the request/response contract into an AIReview,
// for use when a real completion backend is configured.
type BackendGenerator struct {
	svc *Service
}

// NewBackendGenerator wraps a review service as a lifecycle generator.
func NewBackendGenerator(svc *Service) *BackendGenerator {
	return &BackendGenerator{svc: svc}
}

// GenerateReview runs the review contract over the project's document and
// converts the normalized issues into findings.
func (g *BackendGenerator) GenerateReview(ctx context.Context, p *models.Project) (*models.AIReview, error) {
	resp, err := g.svc.Review(ctx, &Request{BusinessType: p.DraftType, Content: p.Document})
	if err != nil {
		return nil, err
	}

	items := FindingsFromIssues(resp.Issues)
	return &models.AIReview{
		OverallRisk: models.OverallRiskOf(items),
		RiskItems:   items,
		Actions:     map[string]models.Disposition{},
	}, nil
}

// FindingsFromIssues converts normalized response issues into findings,
// assigning each a fresh identifier. Unknown risk levels are kept verbatim;
// they rank lowest when the overall risk is computed.
func FindingsFromIssues(issues []Issue) []models.Finding {
	items := make([]models.Finding, 0, len(issues))
	for _, is := range issues {
		items = append(items, models.Finding{
			ID:           newFindingID(),
			Category:     is.Title,
			Analysis:     is.Description,
			RiskLevel:    models.RiskLevel(is.Level),
			Suggestion:   is.Suggestion,
			LawReference: is.LawReference,
		})
	}
	return items
}

// newFindingID generates an identifier unique within a review. Dispositions
// key on these ids, so the package-shared monotonic entropy is used rather
// than a per-call source, which can repeat within one clock tick.
func newFindingID() string {
	return ulid.Make().String()
}
