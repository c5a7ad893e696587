package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talenthub/matching-api/internal/model"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

const matchColumns = `candidate_id, job_id, overall_score, breakdown, match_reasons,
	       concerns, missing_skills, ai_summary, is_stale, refresh_count,
	       analyzed_at, created_at, updated_at`

// FindByPair returns the stored result for one pair, or nil when absent
func (r *MatchRepo) FindByPair(ctx context.Context, candidateID, jobID uuid.UUID) (*model.MatchResult, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+matchColumns+`
		FROM match_results
		WHERE candidate_id = $1 AND job_id = $2
	`, candidateID, jobID)

	m, err := scanMatch(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding match: %w", err)
	}
	return m, nil
}

// Upsert inserts the result or updates it in place. The composite primary
// key (candidate_id, job_id) guarantees at most one row per pair.
func (r *MatchRepo) Upsert(ctx context.Context, m *model.MatchResult) (*model.MatchResult, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO match_results (candidate_id, job_id, overall_score, breakdown,
		                           match_reasons, concerns, missing_skills, ai_summary,
		                           is_stale, refresh_count, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (candidate_id, job_id) DO UPDATE SET
			overall_score  = EXCLUDED.overall_score,
			breakdown      = EXCLUDED.breakdown,
			match_reasons  = EXCLUDED.match_reasons,
			concerns       = EXCLUDED.concerns,
			missing_skills = EXCLUDED.missing_skills,
			ai_summary     = EXCLUDED.ai_summary,
			is_stale       = EXCLUDED.is_stale,
			refresh_count  = EXCLUDED.refresh_count,
			analyzed_at    = EXCLUDED.analyzed_at,
			updated_at     = now()
		RETURNING `+matchColumns+`
	`, m.CandidateID, m.JobID, m.OverallScore, m.Breakdown,
		m.MatchReasons, m.Concerns, m.MissingSkills, m.AISummary,
		m.IsStale, m.RefreshCount, m.AnalyzedAt)

	saved, err := scanMatch(row)
	if err != nil {
		return nil, fmt.Errorf("upserting match: %w", err)
	}
	return saved, nil
}

// CountByCandidate returns how many matches exist for a candidate
func (r *MatchRepo) CountByCandidate(ctx context.Context, candidateID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM match_results WHERE candidate_id = $1
	`, candidateID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return count, nil
}

// ListByCandidate returns a candidate's matches, highest score first
func (r *MatchRepo) ListByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.MatchResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+`
		FROM match_results
		WHERE candidate_id = $1
		ORDER BY overall_score DESC
		LIMIT $2
	`, candidateID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var matches []model.MatchResult
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, nil
}

// MarkStaleByCandidate flags every match of a candidate after a profile edit
func (r *MatchRepo) MarkStaleByCandidate(ctx context.Context, candidateID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE match_results SET is_stale = true, updated_at = now()
		WHERE candidate_id = $1
	`, candidateID)
	if err != nil {
		return fmt.Errorf("marking candidate matches stale: %w", err)
	}
	return nil
}

// MarkStaleByJob flags every match against a job after the posting changes
func (r *MatchRepo) MarkStaleByJob(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE match_results SET is_stale = true, updated_at = now()
		WHERE job_id = $1
	`, jobID)
	if err != nil {
		return fmt.Errorf("marking job matches stale: %w", err)
	}
	return nil
}

func scanMatch(row pgx.Row) (*model.MatchResult, error) {
	var m model.MatchResult
	err := row.Scan(
		&m.CandidateID, &m.JobID, &m.OverallScore, &m.Breakdown, &m.MatchReasons,
		&m.Concerns, &m.MissingSkills, &m.AISummary, &m.IsStale, &m.RefreshCount,
		&m.AnalyzedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
