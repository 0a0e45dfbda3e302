package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/enrichment"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type enrichmentResultRepositoryImpl struct {
	db *database.DB
}

func NewEnrichmentResultRepository(db *database.DB) enrichment.ResultRepository {
	return &enrichmentResultRepositoryImpl{db: db}
}

// Insert implements enrichment.ResultRepository. Rows are never updated.
func (r *enrichmentResultRepositoryImpl) Insert(ctx context.Context, result enrichment.Result) (enrichment.Result, error) {
	q := GetQuerier(ctx, r.db)

	projects := result.Projects
	if projects == nil {
		projects = []enrichment.Project{}
	}
	projectsJSON, err := json.Marshal(projects)
	if err != nil {
		return enrichment.Result{}, fmt.Errorf("failed to marshal projects: %w", err)
	}
	skills := result.Skills
	if skills == nil {
		skills = []string{}
	}

	query := `
		INSERT INTO enrichment_results (
			employee_id, snapshot_key, linkedin_data, github_data, bio, projects, skills, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, processed_at
	`
	err = q.QueryRow(ctx, query,
		result.EmployeeID,
		result.SnapshotKey,
		nullableJSON(result.LinkedInData),
		nullableJSON(result.GitHubData),
		result.Bio,
		projectsJSON,
		skills,
		result.Error,
	).Scan(&result.ID, &result.ProcessedAt)
	if err != nil {
		return enrichment.Result{}, fmt.Errorf("failed to insert enrichment result: %w", err)
	}

	result.Projects = projects
	result.Skills = skills
	return result, nil
}

// GetLatest implements enrichment.ResultRepository.
func (r *enrichmentResultRepositoryImpl) GetLatest(ctx context.Context, employeeID string) (enrichment.Result, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, snapshot_key, linkedin_data, github_data, bio, projects, skills, error, processed_at
		FROM enrichment_results
		WHERE employee_id = $1
		ORDER BY processed_at DESC, id DESC
		LIMIT 1
	`

	var (
		res                      enrichment.Result
		linkedinData, githubData []byte
		projectsJSON             []byte
		errMsg                   sql.NullString
	)
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&res.ID,
		&res.EmployeeID,
		&res.SnapshotKey,
		&linkedinData,
		&githubData,
		&res.Bio,
		&projectsJSON,
		&res.Skills,
		&errMsg,
		&res.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return enrichment.Result{}, enrichment.ErrResultNotFound
		}
		return enrichment.Result{}, fmt.Errorf("failed to get latest enrichment result: %w", err)
	}

	if len(projectsJSON) > 0 {
		if err := json.Unmarshal(projectsJSON, &res.Projects); err != nil {
			return enrichment.Result{}, fmt.Errorf("failed to decode projects: %w", err)
		}
	}
	res.LinkedInData = linkedinData
	res.GitHubData = githubData
	res.Error = nullStringPtr(errMsg)
	return res, nil
}

func nullableJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
