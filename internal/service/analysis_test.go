package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talenthub/matching-api/internal/httpx"
	"github.com/talenthub/matching-api/internal/matching"
	"github.com/talenthub/matching-api/internal/model"
)

func testInputs() (*model.CandidateProfile, *model.JobPosting, *matching.ScoreResult) {
	candidate := &model.CandidateProfile{
		Skills:          []string{"Go", "PostgreSQL"},
		ExperienceYears: 4,
		WorkStatus:      model.WorkStatusActivelyLooking,
	}
	job := &model.JobPosting{
		Title:  "Backend Engineer",
		Skills: []string{"Go"},
	}
	result := &matching.ScoreResult{
		OverallScore: 92,
		Breakdown:    map[string]int{matching.FactorSkills: 100},
		MatchReasons: []string{"1 of 1 required skills matched"},
	}
	return candidate, job, result
}

func testCaller() *httpx.Caller {
	return httpx.NewCaller(1, time.Millisecond, time.Second)
}

func TestSummarizeReturnsNarrative(t *testing.T) {
	candidate, job, result := testInputs()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analyze-match", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req analysisRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 92, req.Score)
		assert.Equal(t, "Backend Engineer", req.Job.Title)

		json.NewEncoder(w).Encode(analysisResponse{Summary: "A strong backend fit."})
	}))
	defer srv.Close()

	client := NewAnalysisClient("test-key", srv.URL, testCaller())
	summary, err := client.Summarize(context.Background(), candidate, job, result)

	require.NoError(t, err)
	assert.Equal(t, "A strong backend fit.", summary)
}

func TestSummarizeUnconfiguredIsUnavailable(t *testing.T) {
	candidate, job, result := testInputs()
	client := NewAnalysisClient("", "http://unused", testCaller())
	_, err := client.Summarize(context.Background(), candidate, job, result)

	assert.ErrorIs(t, err, httpx.ErrUpstreamUnavailable)
}

func TestSummarizeUpstreamErrorIsUnavailable(t *testing.T) {
	candidate, job, result := testInputs()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAnalysisClient("test-key", srv.URL, testCaller())
	_, err := client.Summarize(context.Background(), candidate, job, result)

	assert.ErrorIs(t, err, httpx.ErrUpstreamUnavailable)
}

func TestSummarizeRecoversAfterTransientError(t *testing.T) {
	candidate, job, result := testInputs()
	first := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first {
			first = false
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(analysisResponse{Summary: "Recovered narrative."})
	}))
	defer srv.Close()

	client := NewAnalysisClient("test-key", srv.URL, testCaller())
	summary, err := client.Summarize(context.Background(), candidate, job, result)

	require.NoError(t, err)
	assert.Equal(t, "Recovered narrative.", summary)
}

func TestSummarizeRejectsEmptySummary(t *testing.T) {
	candidate, job, result := testInputs()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(analysisResponse{})
	}))
	defer srv.Close()

	client := NewAnalysisClient("test-key", srv.URL, testCaller())
	_, err := client.Summarize(context.Background(), candidate, job, result)

	assert.Error(t, err)
}
