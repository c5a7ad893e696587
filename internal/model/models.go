package model

import (
	"time"

	"github.com/google/uuid"
)

// ── Candidate profile ──────────────────────────────────

type WorkExperience struct {
	Title          string `json:"title"`
	DurationMonths int    `json:"durationMonths"`
}

// Candidate work status values
const (
	WorkStatusActivelyLooking    = "actively_looking"
	WorkStatusOpenToOffers       = "open_to_offers"
	WorkStatusEmployedNotLooking = "employed_not_looking"
	WorkStatusNotAvailable       = "not_available"
)

// Shift values (shared by candidate preference and job posting)
const (
	ShiftDay       = "day"
	ShiftNight     = "night"
	ShiftGraveyard = "graveyard"
	ShiftFlexible  = "flexible"
)

// Work arrangement values
const (
	ArrangementOnsite = "onsite"
	ArrangementHybrid = "hybrid"
	ArrangementRemote = "remote"
)

// CandidateProfile is the read-only scoring input for one worker
type CandidateProfile struct {
	ID                 uuid.UUID        `json:"id"`
	Skills             []string         `json:"skills"`
	WorkExperiences    []WorkExperience `json:"workExperiences"`
	ExpectedSalaryMin  *int             `json:"expectedSalaryMin,omitempty"`
	ExpectedSalaryMax  *int             `json:"expectedSalaryMax,omitempty"`
	ExperienceYears    int              `json:"experienceYears"`
	PreferredShift     string           `json:"preferredShift,omitempty"`
	PreferredWorkSetup string           `json:"preferredWorkSetup,omitempty"`
	WorkStatus         string           `json:"workStatus,omitempty"`
	IsActive           bool             `json:"isActive"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Validate checks invariants that must hold before scoring
func (c *CandidateProfile) Validate() error {
	if c.ExperienceYears < 0 {
		return &ValidationError{Field: "experienceYears", Reason: "must be non-negative"}
	}
	if c.ExpectedSalaryMin != nil && c.ExpectedSalaryMax != nil &&
		*c.ExpectedSalaryMin > *c.ExpectedSalaryMax {
		return &ValidationError{Field: "expectedSalary", Reason: "min exceeds max"}
	}
	return nil
}

// ── Job posting ────────────────────────────────────────

// JobPosting is the read-only scoring input for one opening
type JobPosting struct {
	ID              uuid.UUID `json:"id"`
	AgencyID        uuid.UUID `json:"agencyId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements,omitempty"`
	Skills          []string  `json:"skills"`
	SalaryMin       *int      `json:"salaryMin,omitempty"`
	SalaryMax       *int      `json:"salaryMax,omitempty"`
	Currency        string    `json:"currency"`
	WorkArrangement string    `json:"workArrangement,omitempty"`
	Shift           string    `json:"shift,omitempty"`
	IsOpen          bool      `json:"isOpen"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (j *JobPosting) Validate() error {
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		return &ValidationError{Field: "salary", Reason: "min exceeds max"}
	}
	return nil
}

// ── Match result ───────────────────────────────────────

// MatchResult is one persisted compatibility score for a (candidate, job)
// pair. The pair is the composite key: at most one row exists per pair.
type MatchResult struct {
	CandidateID   uuid.UUID      `json:"candidateId"`
	JobID         uuid.UUID      `json:"jobId"`
	OverallScore  int            `json:"overallScore"`
	Breakdown     map[string]int `json:"breakdown"`
	MatchReasons  []string       `json:"matchReasons"`
	Concerns      []string       `json:"concerns"`
	MissingSkills []string       `json:"missingSkills"`
	AISummary     *string        `json:"aiSummary,omitempty"`
	IsStale       bool           `json:"isStale"`
	RefreshCount  int            `json:"refreshCount"`
	AnalyzedAt    time.Time      `json:"analyzedAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// RefreshableAfter is the earliest time the pair may be recomputed
func (m *MatchResult) RefreshableAfter(window time.Duration) time.Time {
	return m.AnalyzedAt.Add(window)
}

// ── Agency (rate-limited API consumer) ─────────────────

// Agency tier values
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

type Agency struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"-"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"createdAt"`
}

// ── Batch generation ───────────────────────────────────

// Pair identifies one (candidate, job) combination to score
type Pair struct {
	CandidateID uuid.UUID `json:"candidateId"`
	JobID       uuid.UUID `json:"jobId"`
}

// Batch outcome values
const (
	OutcomeCreated         = "created"
	OutcomeSkippedCooldown = "skipped_cooldown"
	OutcomeSkippedCovered  = "skipped_covered"
	OutcomeErrored         = "errored"
)

type PairOutcome struct {
	Pair    Pair   `json:"pair"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// BatchSummary accumulates per-pair outcomes for one batch run
type BatchSummary struct {
	Processed       int           `json:"processed"`
	Created         int           `json:"created"`
	SkippedCooldown int           `json:"skippedCooldown"`
	SkippedCovered  int           `json:"skippedCovered"`
	Errored         int           `json:"errored"`
	Outcomes        []PairOutcome `json:"outcomes"`
}

func (b *BatchSummary) Record(p Pair, outcome string, err error) {
	b.Processed++
	o := PairOutcome{Pair: p, Outcome: outcome}
	switch outcome {
	case OutcomeCreated:
		b.Created++
	case OutcomeSkippedCooldown:
		b.SkippedCooldown++
	case OutcomeSkippedCovered:
		b.SkippedCovered++
	case OutcomeErrored:
		b.Errored++
		if err != nil {
			o.Error = err.Error()
		}
	}
	b.Outcomes = append(b.Outcomes, o)
}
