package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fairwind/fcr/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// storedReview is the persisted shape of an AI review. Dispositions live in
// their own table and are composed back into Actions on load.
type storedReview struct {
	OverallRisk models.RiskLevel `json:"overallRisk"`
	RiskItems   []models.Finding `json:"riskItems"`
}

// marshalReview serializes a review (minus its actions map) for the
// ai_review column. A nil review maps to SQL NULL.
func marshalReview(r *models.AIReview) (any, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(storedReview{OverallRisk: r.OverallRisk, RiskItems: r.RiskItems})
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	return string(data), nil
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	now := time.Now().UTC().Truncate(time.Minute)
	p.CreatedAt = now
	p.UpdatedAt = now

	review, err := marshalReview(p.AIReview)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, policy_title, organization, draft_type, scope, release_date, document, confidential, exception_applies, status, ai_review, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.PolicyTitle, p.Organization, p.DraftType, p.Scope, p.ReleaseDate, p.Document,
		boolToInt(p.Confidential), boolToInt(p.ExceptionApplies), string(p.Status), review,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

const projectColumns = `id, name, policy_title, organization, draft_type, scope, release_date, document, confidential, exception_applies, status, ai_review, created_at, updated_at`

// scanProject scans one project row. The caller provides the row scanner.
func scanProject(scan func(dest ...any) error) (*models.Project, error) {
	p := &models.Project{}
	var status string
	var review sql.NullString
	if err := scan(&p.ID, &p.Name, &p.PolicyTitle, &p.Organization, &p.DraftType, &p.Scope, &p.ReleaseDate,
		&p.Document, &p.Confidential, &p.ExceptionApplies, &status, &review, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	if review.Valid {
		var sr storedReview
		if err := json.Unmarshal([]byte(review.String), &sr); err != nil {
			return nil, fmt.Errorf("unmarshal review: %w", err)
		}
		p.AIReview = &models.AIReview{
			OverallRisk: sr.OverallRisk,
			RiskItems:   sr.RiskItems,
			Actions:     map[string]models.Disposition{},
		}
	}
	return p, nil
}

// loadActions fills the actions map for a project with a non-nil review.
func (s *SQLiteStore) loadActions(ctx context.Context, p *models.Project) error {
	if p.AIReview == nil {
		return nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT finding_id, type, "desc" FROM dispositions WHERE project_id = ? ORDER BY finding_id`, p.ID)
	if err != nil {
		return fmt.Errorf("load dispositions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var findingID, dtype, desc string
		if err := rows.Scan(&findingID, &dtype, &desc); err != nil {
			return fmt.Errorf("scan disposition: %w", err)
		}
		p.AIReview.Actions[findingID] = models.Disposition{Type: models.DispositionType(dtype), Desc: desc}
	}
	return rows.Err()
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if err := s.loadActions(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, filter ProjectListFilter) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Organization != "" {
		conditions = append(conditions, "organization = ?")
		args = append(args, filter.Organization)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range projects {
		if err := s.loadActions(ctx, p); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Minute)

	review, err := marshalReview(p.AIReview)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name=?, policy_title=?, organization=?, draft_type=?, scope=?, release_date=?, document=?, confidential=?, exception_applies=?, status=?, ai_review=?, updated_at=?
		WHERE id=?`,
		p.Name, p.PolicyTitle, p.Organization, p.DraftType, p.Scope, p.ReleaseDate, p.Document,
		boolToInt(p.Confidential), boolToInt(p.ExceptionApplies), string(p.Status), review,
		p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// --- Dispositions ---

func (s *SQLiteStore) SaveDispositions(ctx context.Context, projectID string, actions map[string]models.Disposition) error {
	if len(actions) == 0 {
		return nil
	}
	now := time.Now().UTC().Truncate(time.Minute)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for findingID, d := range actions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dispositions (project_id, finding_id, type, "desc", updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(project_id, finding_id) DO UPDATE SET type=excluded.type, "desc"=excluded."desc", updated_at=excluded.updated_at`,
			projectID, findingID, string(d.Type), d.Desc, now,
		)
		if err != nil {
			return fmt.Errorf("save disposition %s: %w", findingID, err)
		}
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE projects SET updated_at=? WHERE id=?", now, projectID)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, models.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
