package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/talenthub/matching-api/internal/matching"
	"github.com/talenthub/matching-api/internal/model"
	"github.com/talenthub/matching-api/internal/repository"
)

type MatchHandler struct {
	manager    *matching.Manager
	candidates *repository.CandidateRepo
	jobs       *repository.JobRepo
}

func NewMatchHandler(manager *matching.Manager, candidates *repository.CandidateRepo, jobs *repository.JobRepo) *MatchHandler {
	return &MatchHandler{manager: manager, candidates: candidates, jobs: jobs}
}

// GetMatch handles GET /matches/:candidateId/:jobId
func (h *MatchHandler) GetMatch(c *gin.Context) {
	candidateID, jobID, ok := pairParams(c)
	if !ok {
		return
	}

	match, err := h.manager.GetOrCompute(c.Request.Context(), candidateID, jobID)
	if err != nil {
		respondMatchError(c, err, "Failed to compute match")
		return
	}

	c.JSON(http.StatusOK, match)
}

// RefreshMatch handles POST /matches/:candidateId/:jobId/refresh
func (h *MatchHandler) RefreshMatch(c *gin.Context) {
	candidateID, jobID, ok := pairParams(c)
	if !ok {
		return
	}

	match, err := h.manager.Refresh(c.Request.Context(), candidateID, jobID)
	if err != nil {
		var limited *matching.RateLimitedError
		if errors.As(err, &limited) {
			retryAfter := int(limited.RetryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Match was refreshed recently",
				"retryAfter": retryAfter,
			})
			return
		}
		respondMatchError(c, err, "Failed to refresh match")
		return
	}

	c.JSON(http.StatusOK, match)
}

type batchRequest struct {
	CandidateID *uuid.UUID `json:"candidateId"`
	JobID       *uuid.UUID `json:"jobId"`
	Limit       int        `json:"limit"`
}

// GenerateBatch handles POST /matches/batch. One of candidateId or jobId
// selects the pairing axis; both at once scores a single pair.
func (h *MatchHandler) GenerateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.CandidateID == nil && req.JobID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidateId or jobId is required"})
		return
	}

	pairs, err := h.expandPairs(c, &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to expand batch pairs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build batch"})
		return
	}

	summary, err := h.manager.GenerateBatch(c.Request.Context(), pairs)
	if err != nil {
		// Cancellation mid-batch still reports the pairs already processed
		log.Warn().Err(err).Int("processed", summary.Processed).Msg("Batch run interrupted")
		c.JSON(http.StatusOK, gin.H{"summary": summary, "interrupted": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *MatchHandler) expandPairs(c *gin.Context, req *batchRequest) ([]model.Pair, error) {
	if req.CandidateID != nil && req.JobID != nil {
		return []model.Pair{{CandidateID: *req.CandidateID, JobID: *req.JobID}}, nil
	}

	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var pairs []model.Pair
	if req.CandidateID != nil {
		jobs, err := h.jobs.ListOpen(c.Request.Context(), limit)
		if err != nil {
			return nil, err
		}
		for _, j := range jobs {
			pairs = append(pairs, model.Pair{CandidateID: *req.CandidateID, JobID: j.ID})
		}
		return pairs, nil
	}

	candidates, err := h.candidates.ListActive(c.Request.Context(), limit)
	if err != nil {
		return nil, err
	}
	for _, cand := range candidates {
		pairs = append(pairs, model.Pair{CandidateID: cand.ID, JobID: *req.JobID})
	}
	return pairs, nil
}

// ListCandidateMatches handles GET /candidates/:id/matches
func (h *MatchHandler) ListCandidateMatches(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid candidate ID"})
		return
	}

	limit := 20
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	matches, err := h.manager.TopMatches(c.Request.Context(), candidateID, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list matches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list matches"})
		return
	}
	if matches == nil {
		matches = []model.MatchResult{}
	}

	c.JSON(http.StatusOK, matches)
}

// InvalidateCandidate handles POST /candidates/:id/invalidate
func (h *MatchHandler) InvalidateCandidate(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid candidate ID"})
		return
	}

	if err := h.manager.InvalidateCandidate(c.Request.Context(), candidateID); err != nil {
		log.Error().Err(err).Msg("Failed to invalidate candidate matches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}

// InvalidateJob handles POST /jobs/:id/invalidate
func (h *MatchHandler) InvalidateJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	if err := h.manager.InvalidateJob(c.Request.Context(), jobID); err != nil {
		log.Error().Err(err).Msg("Failed to invalidate job matches")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}

func pairParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	candidateID, err := uuid.Parse(c.Param("candidateId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid candidate ID"})
		return uuid.Nil, uuid.Nil, false
	}
	jobID, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return candidateID, jobID, true
}

func respondMatchError(c *gin.Context, err error, fallback string) {
	var invalid *model.ValidationError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case errors.Is(err, matching.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Candidate or job not found"})
	default:
		log.Error().Err(err).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
