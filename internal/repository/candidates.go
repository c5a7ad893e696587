package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talenthub/matching-api/internal/model"
)

type CandidateRepo struct {
	pool *pgxpool.Pool
}

func NewCandidateRepo(pool *pgxpool.Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

const candidateColumns = `id, skills, work_experiences, expected_salary_min,
	       expected_salary_max, experience_years, preferred_shift,
	       preferred_work_setup, work_status, is_active, created_at, updated_at`

func (r *CandidateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CandidateProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE id = $1
	`, id)

	c, err := scanCandidate(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding candidate: %w", err)
	}
	return c, nil
}

// ListActive returns active candidates for batch generation
func (r *CandidateRepo) ListActive(ctx context.Context, limit int) ([]model.CandidateProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE is_active = true
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var candidates []model.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate row: %w", err)
		}
		candidates = append(candidates, *c)
	}
	return candidates, nil
}

func scanCandidate(row pgx.Row) (*model.CandidateProfile, error) {
	var c model.CandidateProfile
	err := row.Scan(
		&c.ID, &c.Skills, &c.WorkExperiences, &c.ExpectedSalaryMin,
		&c.ExpectedSalaryMax, &c.ExperienceYears, &c.PreferredShift,
		&c.PreferredWorkSetup, &c.WorkStatus, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
