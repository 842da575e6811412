package review

import (
	"context"
	"strings"

	"github.com/fairwind/fcr/internal/models"
)

// Sentinel defaults applied when the caller omits a field.
const (
	DefaultBusinessType = "general"
	DefaultJurisdiction = "cn"
)

// ErrEmptyContent is the user-visible message for a missing document body.
const ErrEmptyContent = "content 不能为空"

// Request is one compliance review request for a document body.
type Request struct {
	BusinessType string         `json:"businessType,omitempty"`
	Jurisdiction string         `json:"jurisdiction,omitempty"`
	Content      string         `json:"content"`
	Options      map[string]any `json:"options,omitempty"` // reserved for future flags
}

// Issue is one finding-like object in a review response.
type Issue struct {
	Title        string `json:"title"`
	Level        string `json:"level"`
	Description  string `json:"description"`
	Suggestion   string `json:"suggestion"`
	LawReference string `json:"lawReference"`
}

// Response is the fixed-shape result of one review call.
type Response struct {
	RiskScore *int    `json:"riskScore"`
	Summary   string  `json:"summary"`
	Issues    []Issue `json:"issues"`
	ModelNote string  `json:"modelNote"`
}

// Backend is a replaceable text-completion provider. It receives the full
// instruction block and returns the raw model output.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Validate applies defaults and rejects an empty document body.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return &models.ValidationError{Msg: ErrEmptyContent}
	}
	if r.BusinessType == "" {
		r.BusinessType = DefaultBusinessType
	}
	if r.Jurisdiction == "" {
		r.Jurisdiction = DefaultJurisdiction
	}
	return nil
}

// BuildPrompt constructs the instruction block sent to the backend.
func BuildPrompt(r *Request) string {
	var sb strings.Builder
	sb.WriteString("你是公平竞争审查专家。请对下面的政策文件进行公平竞争合规审查。\n\n")
	sb.WriteString("业务类型: ")
	sb.WriteString(r.BusinessType)
	sb.WriteString("\n适用司法辖区: ")
	sb.WriteString(r.Jurisdiction)
	sb.WriteString("\n\n待审查文件内容:\n")
	sb.WriteString(r.Content)
	sb.WriteString(`

Return ONLY a JSON object with exactly these four top-level fields:
- "riskScore": integer 0-100, higher means riskier
- "summary": short narrative of the overall assessment
- "issues": array of objects, each with "title", "level" (one of 高/中/低), "description", "suggestion", "lawReference"
- "modelNote": a caveat string about the limits of this automated review

Do not output anything that is not JSON. No markdown fencing, no explanation.`)
	return sb.String()
}

// Service runs the review contract against a backend.
type Service struct {
	backend Backend
}

// NewService creates a review service for the given backend.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// Review validates the request, queries the backend, and returns the
// normalized fixed-shape response. The backend payload is parsed with
// ParseRaw and then shaped by Normalize; a malformed payload surfaces as
// an UpstreamFormatError, never as a half-shaped response.
func (s *Service) Review(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	raw, err := s.backend.Complete(ctx, BuildPrompt(req))
	if err != nil {
		return nil, err
	}

	obj, err := ParseRaw(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(obj), nil
}
