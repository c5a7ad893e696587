package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/talenthub/matching-api/internal/httpx"
	"github.com/talenthub/matching-api/internal/matching"
	"github.com/talenthub/matching-api/internal/model"
)

// AnalysisClient wraps the match-analysis backend that turns a score
// breakdown into a short narrative. Every call goes through the resilient
// call layer; a failed call means a match without a narrative, never a
// failed match.
type AnalysisClient struct {
	apiKey  string
	baseURL string
	caller  *httpx.Caller
}

func NewAnalysisClient(apiKey, baseURL string, caller *httpx.Caller) *AnalysisClient {
	return &AnalysisClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		caller:  caller,
	}
}

// ── Analysis API request/response types ───────────────

type candidateSummary struct {
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experienceYears"`
	SalaryMin       *int     `json:"salaryMin,omitempty"`
	SalaryMax       *int     `json:"salaryMax,omitempty"`
	WorkStatus      string   `json:"workStatus,omitempty"`
}

type jobSummary struct {
	Title     string   `json:"title"`
	Skills    []string `json:"skills"`
	SalaryMin *int     `json:"salaryMin,omitempty"`
	SalaryMax *int     `json:"salaryMax,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

type analysisRequest struct {
	Candidate candidateSummary `json:"candidate"`
	Job       jobSummary       `json:"job"`
	Score     int              `json:"score"`
	Breakdown map[string]int   `json:"breakdown"`
	Reasons   []string         `json:"reasons"`
	Concerns  []string         `json:"concerns"`
}

type analysisResponse struct {
	Summary string `json:"summary"`
}

// Summarize requests a narrative for a scored pair. Implements
// matching.Summarizer.
func (c *AnalysisClient) Summarize(ctx context.Context, candidate *model.CandidateProfile, job *model.JobPosting, result *matching.ScoreResult) (string, error) {
	if c.apiKey == "" {
		// Not configured: matches are produced without narratives
		return "", httpx.ErrUpstreamUnavailable
	}

	reqBody := analysisRequest{
		Candidate: candidateSummary{
			Skills:          candidate.Skills,
			ExperienceYears: candidate.ExperienceYears,
			SalaryMin:       candidate.ExpectedSalaryMin,
			SalaryMax:       candidate.ExpectedSalaryMax,
			WorkStatus:      candidate.WorkStatus,
		},
		Job: jobSummary{
			Title:     job.Title,
			Skills:    job.Skills,
			SalaryMin: job.SalaryMin,
			SalaryMax: job.SalaryMax,
			Currency:  job.Currency,
		},
		Score:     result.OverallScore,
		Breakdown: result.Breakdown,
		Reasons:   result.MatchReasons,
		Concerns:  result.Concerns,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/analyze-match", bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: analysis API returned %d", httpx.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed analysisResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("parsing analysis response: %w", err)
	}
	if parsed.Summary == "" {
		return "", fmt.Errorf("empty summary from analysis API")
	}

	return parsed.Summary, nil
}
