package store

import (
	"context"

	"github.com/fairwind/fcr/internal/models"
)

// ProjectListFilter specifies filters for listing projects.
type ProjectListFilter struct {
	Status       models.ProjectStatus
	Organization string
}

// Store defines the persistence interface for fcr.
type Store interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, filter ProjectListFilter) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	// SaveDispositions merges the given dispositions into the project's
	// actions map. Keys present in the input are overwritten wholesale;
	// keys absent from the input are left untouched.
	SaveDispositions(ctx context.Context, projectID string, actions map[string]models.Disposition) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
