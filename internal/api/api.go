package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fairwind/fcr/internal/kb"
	"github.com/fairwind/fcr/internal/models"
	"github.com/fairwind/fcr/internal/review"
	"github.com/fairwind/fcr/internal/stats"
	"github.com/fairwind/fcr/internal/store"
	"github.com/fairwind/fcr/internal/workflow"
)

// Server provides the REST API handlers.
type Server struct {
	store    store.Store
	flow     *workflow.Service
	reviewer *review.Service
}

// NewServer creates a new API server.
func NewServer(s store.Store, flow *workflow.Service, reviewer *review.Service) *Server {
	return &Server{
		store:    s,
		flow:     flow,
		reviewer: reviewer,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/review", s.reviewDocument)

	mux.HandleFunc("GET /api/v1/projects", s.listProjects)
	mux.HandleFunc("POST /api/v1/projects", s.createProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.getProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.deleteProject)

	mux.HandleFunc("POST /api/v1/projects/{id}/review", s.startReview)
	mux.HandleFunc("POST /api/v1/projects/{id}/dispositions", s.saveDispositions)
	mux.HandleFunc("POST /api/v1/projects/{id}/submit", s.submitForDeptReview)
	mux.HandleFunc("POST /api/v1/projects/{id}/approve", s.approve)

	mux.HandleFunc("GET /api/v1/dashboard", s.dashboard)
	mux.HandleFunc("GET /api/v1/stats", s.statistics)
	mux.HandleFunc("GET /api/v1/kb", s.knowledgeBase)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy to HTTP statuses:
// validation → 400, not found → 404, upstream format → 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case models.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case models.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case models.IsUpstreamFormat(err):
		slog.Error("upstream payload not parsable", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Stateless review contract ---

func (s *Server) reviewDocument(w http.ResponseWriter, r *http.Request) {
	var req review.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := s.reviewer.Review(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	filter := store.ProjectListFilter{
		Status:       models.ProjectStatus(r.URL.Query().Get("status")),
		Organization: r.URL.Query().Get("org"),
	}
	projects, err := s.store.ListProjects(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.flow.Create(r.Context(), &p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Lifecycle ---

func (s *Server) startReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// ?wait=1 blocks until generation finishes; default is fire-and-poll.
	if r.URL.Query().Get("wait") != "" {
		project, err := s.flow.RunReview(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
		return
	}

	project, err := s.flow.StartReview(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, project)
}

func (s *Server) saveDispositions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actions map[string]models.Disposition `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "actions is required")
		return
	}

	project, err := s.flow.SaveDispositions(r.Context(), r.PathValue("id"), req.Actions)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) submitForDeptReview(w http.ResponseWriter, r *http.Request) {
	project, err := s.flow.SubmitForDeptReview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	project, err := s.flow.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// --- Read views ---

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context(), store.ProjectListFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(projects))
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context(), store.ProjectListFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats.Distribute(projects))
}

// --- Knowledge base ---

func (s *Server) knowledgeBase(w http.ResponseWriter, r *http.Request) {
	articles, err := kb.Search(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if articles == nil {
		articles = []kb.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}
