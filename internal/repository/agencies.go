package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talenthub/matching-api/internal/model"
)

type AgencyRepo struct {
	pool *pgxpool.Pool
}

func NewAgencyRepo(pool *pgxpool.Pool) *AgencyRepo {
	return &AgencyRepo{pool: pool}
}

// FindByAPIKey resolves the agency behind an inbound request. The tier is
// read fresh on every call so plan changes take effect immediately.
func (r *AgencyRepo) FindByAPIKey(ctx context.Context, apiKey string) (*model.Agency, error) {
	var a model.Agency
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, api_key, tier, created_at
		FROM agencies
		WHERE api_key = $1
	`, apiKey).Scan(&a.ID, &a.Name, &a.APIKey, &a.Tier, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding agency: %w", err)
	}
	return &a, nil
}

// TierByID returns just the tier column for the governor's per-call lookup
func (r *AgencyRepo) TierByID(ctx context.Context, id uuid.UUID) (string, error) {
	var tier string
	err := r.pool.QueryRow(ctx, `
		SELECT tier FROM agencies WHERE id = $1
	`, id).Scan(&tier)
	if err == pgx.ErrNoRows {
		return model.TierFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("finding agency tier: %w", err)
	}
	return tier, nil
}

// Profiles bundles the read-only candidate and job lookups the matching
// engine needs. Implements matching.ProfileSource.
type Profiles struct {
	Candidates *CandidateRepo
	Jobs       *JobRepo
}

func (p *Profiles) CandidateByID(ctx context.Context, id uuid.UUID) (*model.CandidateProfile, error) {
	return p.Candidates.FindByID(ctx, id)
}

func (p *Profiles) JobByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	return p.Jobs.FindByID(ctx, id)
}
