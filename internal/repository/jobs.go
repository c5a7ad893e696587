package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talenthub/matching-api/internal/model"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

const jobColumns = `id, agency_id, title, description, requirements, skills,
	       salary_min, salary_max, currency, work_arrangement, shift, is_open,
	       created_at, updated_at`

func (r *JobRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM job_postings
		WHERE id = $1
	`, id)

	j, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding job: %w", err)
	}
	return j, nil
}

// ListOpen returns open postings for batch generation
func (r *JobRepo) ListOpen(ctx context.Context, limit int) ([]model.JobPosting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM job_postings
		WHERE is_open = true
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*model.JobPosting, error) {
	var j model.JobPosting
	err := row.Scan(
		&j.ID, &j.AgencyID, &j.Title, &j.Description, &j.Requirements, &j.Skills,
		&j.SalaryMin, &j.SalaryMax, &j.Currency, &j.WorkArrangement, &j.Shift,
		&j.IsOpen, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
