package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/talenthub/matching-api/internal/model"
)

// Factor names used as breakdown keys
const (
	FactorSkills      = "skills"
	FactorSalary      = "salary"
	FactorExperience  = "experience"
	FactorPreferences = "preferences"
	FactorWorkStatus  = "work_status"
)

// Factor weights. Policy values, not contract: the shape (skills dominant,
// work status smallest but sharpest) matters more than the exact numbers.
// Must sum to 1.0.
const (
	WeightSkills      = 0.35
	WeightSalary      = 0.20
	WeightExperience  = 0.20
	WeightPreferences = 0.15
	WeightWorkStatus  = 0.10
)

const (
	reasonThreshold  = 80
	concernThreshold = 40
	maxExplanations  = 5

	// Experience floor: under-experience degrades, never disqualifies
	experienceFloor = 20

	// Work status floor: the one factor allowed to pull hard downward
	workStatusFloor = 20

	defaultRequiredYears = 2
)

// factorOrder lists factors by weight descending, so reasons and concerns
// surface the most consequential ones first.
var factorOrder = []struct {
	name   string
	weight float64
}{
	{FactorSkills, WeightSkills},
	{FactorSalary, WeightSalary},
	{FactorExperience, WeightExperience},
	{FactorPreferences, WeightPreferences},
	{FactorWorkStatus, WeightWorkStatus},
}

// ScoreResult is the deterministic output of the scoring algorithm.
// Narrative enrichment (AISummary) is attached later by the manager and is
// not part of this result.
type ScoreResult struct {
	OverallScore  int
	Breakdown     map[string]int
	MatchReasons  []string
	Concerns      []string
	MissingSkills []string
}

// Score computes the compatibility of a candidate against a job posting.
// Pure and deterministic: same inputs always produce the same result.
func Score(candidate *model.CandidateProfile, job *model.JobPosting) (*ScoreResult, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	skillsScore, matched, required := scoreSkills(candidate, job)
	salaryScore := scoreSalary(candidate, job)
	expScore, requiredYears := scoreExperience(candidate, job)
	prefScore := scorePreferences(candidate, job)
	statusScore := scoreWorkStatus(candidate)

	breakdown := map[string]int{
		FactorSkills:      skillsScore,
		FactorSalary:      salaryScore,
		FactorExperience:  expScore,
		FactorPreferences: prefScore,
		FactorWorkStatus:  statusScore,
	}

	overall := math.Round(
		float64(skillsScore)*WeightSkills +
			float64(salaryScore)*WeightSalary +
			float64(expScore)*WeightExperience +
			float64(prefScore)*WeightPreferences +
			float64(statusScore)*WeightWorkStatus)

	explanations := map[string]string{
		FactorSkills:      fmt.Sprintf("%d of %d required skills matched", matched, required),
		FactorSalary:      salaryExplanation(salaryScore),
		FactorExperience:  experienceExplanation(candidate.ExperienceYears, requiredYears, expScore),
		FactorPreferences: preferenceExplanation(prefScore),
		FactorWorkStatus:  workStatusExplanation(candidate.WorkStatus),
	}
	if required == 0 {
		explanations[FactorSkills] = "no specific skills required"
	}

	var reasons, concerns []string
	for _, f := range factorOrder {
		score := breakdown[f.name]
		switch {
		case score >= reasonThreshold && len(reasons) < maxExplanations:
			reasons = append(reasons, explanations[f.name])
		case score <= concernThreshold && len(concerns) < maxExplanations:
			concerns = append(concerns, explanations[f.name])
		}
	}

	return &ScoreResult{
		OverallScore:  int(overall),
		Breakdown:     breakdown,
		MatchReasons:  reasons,
		Concerns:      concerns,
		MissingSkills: missingSkills(candidate, job),
	}, nil
}

// ── Skill coverage ─────────────────────────────────────

// normalizeSkill makes comparison case-insensitive and plural-tolerant
func normalizeSkill(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > 3 && strings.HasSuffix(s, "s") {
		s = strings.TrimSuffix(s, "s")
	}
	return s
}

func scoreSkills(c *model.CandidateProfile, j *model.JobPosting) (score, matched, required int) {
	if len(j.Skills) == 0 {
		// Nothing required, nothing to fail
		return 100, 0, 0
	}

	have := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		have[normalizeSkill(s)] = true
	}

	for _, s := range j.Skills {
		if have[normalizeSkill(s)] {
			matched++
		}
	}

	required = len(j.Skills)
	score = int(math.Round(float64(matched) / float64(required) * 100))
	return score, matched, required
}

func missingSkills(c *model.CandidateProfile, j *model.JobPosting) []string {
	have := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		have[normalizeSkill(s)] = true
	}

	missing := []string{}
	for _, s := range j.Skills {
		if !have[normalizeSkill(s)] {
			missing = append(missing, s)
		}
	}
	return missing
}

// ── Salary compatibility ───────────────────────────────

func scoreSalary(c *model.CandidateProfile, j *model.JobPosting) int {
	// Absence of data is not evidence of mismatch
	if c.ExpectedSalaryMin == nil && c.ExpectedSalaryMax == nil {
		return 100
	}
	if j.SalaryMin == nil && j.SalaryMax == nil {
		return 100
	}

	candMin, candMax := rangeBounds(c.ExpectedSalaryMin, c.ExpectedSalaryMax)
	jobMin, jobMax := rangeBounds(j.SalaryMin, j.SalaryMax)

	overlapMin := math.Max(candMin, jobMin)
	overlapMax := math.Min(candMax, jobMax)

	if overlapMax >= overlapMin {
		// Intersecting ranges: grade by how much of the narrower range is covered
		shorter := math.Min(candMax-candMin, jobMax-jobMin)
		if shorter == 0 {
			return 100
		}
		return int(math.Round(60 + 40*(overlapMax-overlapMin)/shorter))
	}

	// Disjoint: decay with the gap, hitting 0 at half the job's midpoint
	gap := overlapMin - overlapMax
	midpoint := (jobMin + jobMax) / 2
	if midpoint <= 0 {
		return 0
	}
	frac := gap / (midpoint * 0.5)
	if frac >= 1 {
		return 0
	}
	return int(math.Round(100 * (1 - frac)))
}

// rangeBounds fills a half-open salary range from its present bound
func rangeBounds(min, max *int) (float64, float64) {
	switch {
	case min != nil && max != nil:
		return float64(*min), float64(*max)
	case min != nil:
		return float64(*min), float64(*min)
	default:
		return float64(*max), float64(*max)
	}
}

func salaryExplanation(score int) string {
	if score >= reasonThreshold {
		return "expected salary aligns with the offered range"
	}
	if score <= concernThreshold {
		return "expected salary is far from the offered range"
	}
	return "expected salary partially overlaps the offered range"
}

// ── Experience fit ─────────────────────────────────────

// requiredExperienceYears infers a seniority band from the job text when no
// explicit field exists
func requiredExperienceYears(j *model.JobPosting) int {
	text := strings.ToLower(j.Title + " " + j.Requirements)

	switch {
	case strings.Contains(text, "junior") || strings.Contains(text, "entry"):
		return 1
	case strings.Contains(text, "senior") || strings.Contains(text, "lead") ||
		strings.Contains(text, "principal"):
		return 5
	case strings.Contains(text, "mid") || strings.Contains(text, "intermediate"):
		return 3
	}
	return defaultRequiredYears
}

func scoreExperience(c *model.CandidateProfile, j *model.JobPosting) (int, int) {
	required := requiredExperienceYears(j)
	if c.ExperienceYears >= required {
		return 100, required
	}

	// Under-experience is a soft signal: degrade proportionally, never to zero
	score := int(math.Round(float64(c.ExperienceYears) / float64(required) * 100))
	if score < experienceFloor {
		score = experienceFloor
	}
	return score, required
}

func experienceExplanation(years, required, score int) string {
	if score >= reasonThreshold {
		return fmt.Sprintf("%d years of experience meets the ~%d year requirement", years, required)
	}
	return fmt.Sprintf("%d years of experience is below the ~%d year requirement", years, required)
}

// ── Preference alignment ───────────────────────────────

func scorePreferences(c *model.CandidateProfile, j *model.JobPosting) int {
	score := 0
	if axisAligned(c.PreferredShift, j.Shift) {
		score += 50
	}
	if axisAligned(c.PreferredWorkSetup, j.WorkArrangement) {
		score += 50
	}
	return score
}

// axisAligned treats a missing value on either side as non-constraining and
// "flexible" as compatible with anything
func axisAligned(pref, offered string) bool {
	if pref == "" || offered == "" {
		return true
	}
	if strings.EqualFold(pref, model.ShiftFlexible) || strings.EqualFold(offered, model.ShiftFlexible) {
		return true
	}
	return strings.EqualFold(pref, offered)
}

func preferenceExplanation(score int) string {
	switch {
	case score >= 100:
		return "shift and work setup preferences align"
	case score >= 50:
		return "one of shift or work setup preferences aligns"
	}
	return "shift and work setup preferences conflict with the posting"
}

// ── Work status eligibility ────────────────────────────

func scoreWorkStatus(c *model.CandidateProfile) int {
	switch c.WorkStatus {
	case model.WorkStatusActivelyLooking, model.WorkStatusOpenToOffers, "":
		return 100
	}
	return workStatusFloor
}

func workStatusExplanation(status string) string {
	switch status {
	case model.WorkStatusActivelyLooking:
		return "candidate is actively looking for work"
	case model.WorkStatusOpenToOffers:
		return "candidate is open to offers"
	case "":
		return "candidate availability not specified"
	}
	return "candidate is not currently available for work"
}
