package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/talenthub/matching-api/internal/model"
	"github.com/talenthub/matching-api/internal/ratelimit"
)

// MatchStore persists match results with at-most-one-row-per-pair semantics
type MatchStore interface {
	FindByPair(ctx context.Context, candidateID, jobID uuid.UUID) (*model.MatchResult, error)
	Upsert(ctx context.Context, m *model.MatchResult) (*model.MatchResult, error)
	CountByCandidate(ctx context.Context, candidateID uuid.UUID) (int, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.MatchResult, error)
	MarkStaleByCandidate(ctx context.Context, candidateID uuid.UUID) error
	MarkStaleByJob(ctx context.Context, jobID uuid.UUID) error
}

// ProfileSource loads scoring inputs. Implementations return (nil, nil) for
// unknown ids.
type ProfileSource interface {
	CandidateByID(ctx context.Context, id uuid.UUID) (*model.CandidateProfile, error)
	JobByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
}

// Summarizer produces the optional narrative for a scored pair
type Summarizer interface {
	Summarize(ctx context.Context, candidate *model.CandidateProfile, job *model.JobPosting, result *ScoreResult) (string, error)
}

// Policy holds the tunable lifecycle constants
type Policy struct {
	// CooldownWindow is the minimum time between recomputations of one pair.
	// Fixed per deployment, not per request, so refresh semantics stay
	// predictable.
	CooldownWindow time.Duration

	// BatchPairDelay paces batch generation so the analysis backend is never
	// hit with a burst
	BatchPairDelay time.Duration

	// CoveredThreshold short-circuits batch work for candidates that already
	// have this many matches
	CoveredThreshold int
}

func DefaultPolicy() Policy {
	return Policy{
		CooldownWindow:   24 * time.Hour,
		BatchPairDelay:   150 * time.Millisecond,
		CoveredThreshold: 25,
	}
}

// Manager orchestrates scoring, persistence, cooldown, and batch generation
type Manager struct {
	store     MatchStore
	profiles  ProfileSource
	summarize Summarizer
	guard     *ratelimit.PairCooldown
	policy    Policy
	now       func() time.Time
}

func NewManager(store MatchStore, profiles ProfileSource, summarizer Summarizer, policy Policy) *Manager {
	m := &Manager{
		store:     store,
		profiles:  profiles,
		summarize: summarizer,
		policy:    policy,
		now:       time.Now,
	}
	// The guard shares the manager's clock so both cooldowns move together
	m.guard = ratelimit.NewPairCooldownWithClock(policy.CooldownWindow, func() time.Time { return m.now() })
	return m
}

// GetOrCompute returns the stored result unchanged while the pair is inside
// its cooldown window, and recomputes otherwise.
func (m *Manager) GetOrCompute(ctx context.Context, candidateID, jobID uuid.UUID) (*model.MatchResult, error) {
	existing, err := m.store.FindByPair(ctx, candidateID, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading match: %w", err)
	}

	if existing != nil && m.now().Before(existing.RefreshableAfter(m.policy.CooldownWindow)) {
		return existing, nil
	}

	return m.compute(ctx, candidateID, jobID, existing, false)
}

// Refresh forces a recomputation attempt. Unlike the implicit cache hit in
// GetOrCompute, calling inside the window is an explicit RateLimitedError so
// the caller learns when a fresh score becomes possible.
func (m *Manager) Refresh(ctx context.Context, candidateID, jobID uuid.UUID) (*model.MatchResult, error) {
	existing, err := m.store.FindByPair(ctx, candidateID, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading match: %w", err)
	}

	if existing != nil {
		if wait := existing.RefreshableAfter(m.policy.CooldownWindow).Sub(m.now()); wait > 0 {
			return nil, &RateLimitedError{RetryAfter: wait}
		}
	}

	return m.compute(ctx, candidateID, jobID, existing, true)
}

// compute scores the pair, attaches the best-effort narrative, and upserts
func (m *Manager) compute(ctx context.Context, candidateID, jobID uuid.UUID, existing *model.MatchResult, refresh bool) (*model.MatchResult, error) {
	candidate, err := m.profiles.CandidateByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}
	if candidate == nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, ErrNotFound)
	}

	job, err := m.profiles.JobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}

	scored, err := Score(candidate, job)
	if err != nil {
		return nil, err
	}

	result := &model.MatchResult{
		CandidateID:   candidateID,
		JobID:         jobID,
		OverallScore:  scored.OverallScore,
		Breakdown:     scored.Breakdown,
		MatchReasons:  scored.MatchReasons,
		Concerns:      scored.Concerns,
		MissingSkills: scored.MissingSkills,
		AnalyzedAt:    m.now(),
	}
	if existing != nil {
		result.RefreshCount = existing.RefreshCount
	}
	if refresh {
		result.RefreshCount++
	}

	// Best effort: a match never fails because the narrative did
	if m.summarize != nil {
		summary, err := m.summarize.Summarize(ctx, candidate, job, scored)
		if err != nil {
			log.Warn().Err(err).
				Str("candidateId", candidateID.String()).
				Str("jobId", jobID.String()).
				Msg("Narrative enrichment unavailable, storing match without summary")
		} else {
			result.AISummary = &summary
		}
	}

	persisted, err := m.store.Upsert(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("saving match: %w", err)
	}
	return persisted, nil
}

// GenerateBatch scores pairs sequentially with a fixed inter-pair delay.
// One bad pair never stops the rest; cancellation is honored between pairs.
func (m *Manager) GenerateBatch(ctx context.Context, pairs []model.Pair) (*model.BatchSummary, error) {
	summary := &model.BatchSummary{}
	limiter := rate.NewLimiter(rate.Every(m.policy.BatchPairDelay), 1)

	covered := make(map[uuid.UUID]bool)

	for _, pair := range pairs {
		if err := limiter.Wait(ctx); err != nil {
			return summary, err
		}

		skip, known := covered[pair.CandidateID]
		if !known {
			count, err := m.store.CountByCandidate(ctx, pair.CandidateID)
			if err != nil {
				summary.Record(pair, model.OutcomeErrored, err)
				continue
			}
			skip = count > m.policy.CoveredThreshold
			covered[pair.CandidateID] = skip
		}
		if skip {
			summary.Record(pair, model.OutcomeSkippedCovered, nil)
			continue
		}

		existing, err := m.store.FindByPair(ctx, pair.CandidateID, pair.JobID)
		if err != nil {
			summary.Record(pair, model.OutcomeErrored, err)
			continue
		}
		if existing != nil && m.now().Before(existing.RefreshableAfter(m.policy.CooldownWindow)) {
			summary.Record(pair, model.OutcomeSkippedCooldown, nil)
			continue
		}

		// The durable cooldown has passed; the guard is stamped only now, so
		// a skipped run never delays a later eligible one
		key := pairKey(pair.CandidateID, pair.JobID)
		if ok, _ := m.guard.Allow(key); !ok {
			summary.Record(pair, model.OutcomeSkippedCooldown, nil)
			continue
		}

		if _, err := m.compute(ctx, pair.CandidateID, pair.JobID, existing, false); err != nil {
			// Reopen the in-process guard so the pair can be retried sooner
			m.guard.Forget(key)
			summary.Record(pair, model.OutcomeErrored, err)
			log.Error().Err(err).
				Str("candidateId", pair.CandidateID.String()).
				Str("jobId", pair.JobID.String()).
				Msg("Batch pair failed")
			continue
		}

		summary.Record(pair, model.OutcomeCreated, nil)
	}

	return summary, nil
}

// TopMatches lists a candidate's stored matches, best first
func (m *Manager) TopMatches(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.MatchResult, error) {
	return m.store.ListByCandidate(ctx, candidateID, limit)
}

// InvalidateCandidate marks all of a candidate's matches stale, e.g. after a
// profile edit. Stale matches still serve until their cooldown expires.
func (m *Manager) InvalidateCandidate(ctx context.Context, candidateID uuid.UUID) error {
	return m.store.MarkStaleByCandidate(ctx, candidateID)
}

// InvalidateJob marks all matches against a job stale after the posting changes
func (m *Manager) InvalidateJob(ctx context.Context, jobID uuid.UUID) error {
	return m.store.MarkStaleByJob(ctx, jobID)
}

func pairKey(candidateID, jobID uuid.UUID) string {
	return candidateID.String() + "|" + jobID.String()
}
