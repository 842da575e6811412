// Package mcp exposes the review workflow as MCP tools over stdio, so
// assistant clients can drive the same operations as the REST API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fairwind/fcr/internal/kb"
	"github.com/fairwind/fcr/internal/models"
	"github.com/fairwind/fcr/internal/stats"
	"github.com/fairwind/fcr/internal/store"
	"github.com/fairwind/fcr/internal/workflow"
)

// Server wraps the fcr data layer and exposes it as MCP tools.
type Server struct {
	store store.Store
	flow  *workflow.Service
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s store.Store, flow *workflow.Service) *Server {
	return &Server{store: s, flow: flow}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("fcr", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.getProjectTool())
	srv.AddTool(s.createProjectTool())
	srv.AddTool(s.startReviewTool())
	srv.AddTool(s.saveDispositionTool())
	srv.AddTool(s.submitReviewTool())
	srv.AddTool(s.approveProjectTool())
	srv.AddTool(s.statsTool())
	srv.AddTool(s.searchKBTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// fcr_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_list_projects",
		mcp.WithDescription("List compliance review projects. Returns a JSON array with id, name, policy title, organization, status, and overall risk."),
		mcp.WithString("status", mcp.Description("Filter by status: draft, ai_reviewing, ai_completed, dept_reviewing, approved")),
		mcp.WithString("organization", mcp.Description("Filter by drafting organization")),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.ProjectListFilter{
		Status:       models.ProjectStatus(request.GetString("status", "")),
		Organization: request.GetString("organization", ""),
	}
	projects, err := s.store.ListProjects(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	type projectOut struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		PolicyTitle  string `json:"policy_title"`
		Organization string `json:"organization"`
		Status       string `json:"status"`
		OverallRisk  string `json:"overall_risk,omitempty"`
		Findings     int    `json:"findings"`
	}

	out := make([]projectOut, len(projects))
	for i, p := range projects {
		out[i] = projectOut{
			ID:           p.ID,
			Name:         p.Name,
			PolicyTitle:  p.PolicyTitle,
			Organization: p.Organization,
			Status:       string(p.Status),
		}
		if p.AIReview != nil {
			out[i].OverallRisk = string(p.AIReview.OverallRisk)
			out[i].Findings = len(p.AIReview.RiskItems)
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal projects: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_get_project
func (s *Server) getProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_get_project",
		mcp.WithDescription("Get one project with its full AI review: findings (category, excerpt, analysis, risk level, suggestion, law reference) and saved dispositions."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
	)
	return tool, s.handleGetProject
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", id)), nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal project: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_create_project
func (s *Server) createProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_create_project",
		mcp.WithDescription("Create a new review project in draft. Returns the created project as JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("policy_title", mcp.Required(), mcp.Description("Title of the policy document under review")),
		mcp.WithString("organization", mcp.Description("Drafting organization")),
		mcp.WithString("draft_type", mcp.Description("Document type, e.g. 规范性文件")),
		mcp.WithString("document", mcp.Description("Policy document body to review")),
	)
	return tool, s.handleCreateProject
}

func (s *Server) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	policyTitle, err := request.RequireString("policy_title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: policy_title"), nil
	}

	p := &models.Project{
		Name:         name,
		PolicyTitle:  policyTitle,
		Organization: request.GetString("organization", ""),
		DraftType:    request.GetString("draft_type", ""),
		Document:     request.GetString("document", ""),
	}
	if err := s.flow.Create(ctx, p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create project: %v", err)), nil
	}

	result := map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"policy_title": p.PolicyTitle,
		"status":       string(p.Status),
		"created_at":   p.CreatedAt.Format(time.RFC3339),
	}
	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_start_review
func (s *Server) startReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_start_review",
		mcp.WithDescription("Run the AI compliance review for a draft project and wait for the result. Returns the project with its findings."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
	)
	return tool, s.handleStartReview
}

func (s *Server) handleStartReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	p, err := s.flow.RunReview(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("review failed: %v", err)), nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal project: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_save_disposition
func (s *Server) saveDispositionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_save_disposition",
		mcp.WithDescription("Record a decision on one review finding. Existing dispositions for other findings are kept."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("finding_id", mcp.Required(), mcp.Description("Finding ID from the project's review")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Decision: adopt, exception, or reject")),
		mcp.WithString("desc", mcp.Description("Free-text rationale for the decision")),
	)
	return tool, s.handleSaveDisposition
}

func (s *Server) handleSaveDisposition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}
	findingID, err := request.RequireString("finding_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: finding_id"), nil
	}
	dispType, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: type"), nil
	}

	actions := map[string]models.Disposition{
		findingID: {
			Type: models.DispositionType(dispType),
			Desc: request.GetString("desc", ""),
		},
	}
	p, err := s.flow.SaveDispositions(ctx, projectID, actions)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save disposition: %v", err)), nil
	}

	result := map[string]any{
		"project_id":   p.ID,
		"finding_id":   findingID,
		"type":         dispType,
		"dispositions": len(p.AIReview.Actions),
	}
	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_submit_review
func (s *Server) submitReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_submit_review",
		mcp.WithDescription("Submit a project whose AI review is complete for departmental review."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
	)
	return tool, s.handleSubmitReview
}

func (s *Server) handleSubmitReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	p, err := s.flow.SubmitForDeptReview(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit: %v", err)), nil
	}

	result := map[string]any{"project_id": p.ID, "status": string(p.Status)}
	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_approve_project
func (s *Server) approveProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_approve_project",
		mcp.WithDescription("Approve a project under departmental review, concluding the workflow."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
	)
	return tool, s.handleApproveProject
}

func (s *Server) handleApproveProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	p, err := s.flow.Approve(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to approve: %v", err)), nil
	}

	result := map[string]any{"project_id": p.ID, "status": string(p.Status)}
	data, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_stats
func (s *Server) statsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_stats",
		mcp.WithDescription("Get the dashboard summary and risk/status/category distributions across all projects."),
	)
	return tool, s.handleStats
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx, store.ProjectListFilter{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	result := map[string]any{
		"summary":       stats.Summarize(projects),
		"distributions": stats.Distribute(projects),
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// fcr_search_kb
func (s *Server) searchKBTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("fcr_search_kb",
		mcp.WithDescription("Search the embedded fair-competition regulation knowledge base by keyword or citation. Empty query returns all articles."),
		mcp.WithString("query", mcp.Description("Search term, e.g. 市场准入 or 第十四条")),
	)
	return tool, s.handleSearchKB
}

func (s *Server) handleSearchKB(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := kb.Search(request.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("knowledge base search failed: %v", err)), nil
	}

	data, err := json.Marshal(articles)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal articles: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
