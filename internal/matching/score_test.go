package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talenthub/matching-api/internal/model"
)

func intPtr(v int) *int { return &v }

func baseCandidate() *model.CandidateProfile {
	return &model.CandidateProfile{
		Skills:            []string{"Go", "PostgreSQL"},
		ExperienceYears:   5,
		ExpectedSalaryMin: intPtr(50000),
		ExpectedSalaryMax: intPtr(70000),
		PreferredShift:    model.ShiftDay,
		WorkStatus:        model.WorkStatusActivelyLooking,
	}
}

func baseJob() *model.JobPosting {
	return &model.JobPosting{
		Title:     "Senior Backend Engineer",
		Skills:    []string{"Go", "PostgreSQL"},
		SalaryMin: intPtr(60000),
		SalaryMax: intPtr(80000),
		Shift:     model.ShiftDay,
	}
}

func TestScoreWeightedOverall(t *testing.T) {
	result, err := Score(baseCandidate(), baseJob())
	require.NoError(t, err)

	// skills 100, salary 80 (10k overlap of 20k ranges), experience 100,
	// preferences 100, work status 100
	assert.Equal(t, 100, result.Breakdown[FactorSkills])
	assert.Equal(t, 80, result.Breakdown[FactorSalary])
	assert.Equal(t, 100, result.Breakdown[FactorExperience])
	assert.Equal(t, 100, result.Breakdown[FactorPreferences])
	assert.Equal(t, 100, result.Breakdown[FactorWorkStatus])

	// 100*.35 + 80*.20 + 100*.20 + 100*.15 + 100*.10 = 96
	assert.Equal(t, 96, result.OverallScore)
	assert.Empty(t, result.Concerns)
	assert.Empty(t, result.MissingSkills)
}

func TestScoreIsDeterministic(t *testing.T) {
	first, err := Score(baseCandidate(), baseJob())
	require.NoError(t, err)
	second, err := Score(baseCandidate(), baseJob())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreSkillsCoverage(t *testing.T) {
	tests := []struct {
		name      string
		candidate []string
		job       []string
		want      int
	}{
		{"no required skills", []string{"Go"}, nil, 100},
		{"full coverage", []string{"Go", "React"}, []string{"Go", "React"}, 100},
		{"two of three", []string{"go", "postgres"}, []string{"Go", "Postgres", "Kubernetes"}, 67},
		{"none matched", []string{"PHP"}, []string{"Go", "React"}, 0},
		{"case and plural insensitive", []string{"reactjs", "Databases"}, []string{"ReactJS", "database"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &model.CandidateProfile{Skills: tt.candidate, WorkStatus: model.WorkStatusActivelyLooking}
			j := &model.JobPosting{Title: "Worker", Skills: tt.job}

			result, err := Score(c, j)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Breakdown[FactorSkills])
		})
	}
}

func TestScoreMissingSkillsKeepOriginalCasing(t *testing.T) {
	c := &model.CandidateProfile{Skills: []string{"go"}, WorkStatus: model.WorkStatusActivelyLooking}
	j := &model.JobPosting{Skills: []string{"Go", "Kubernetes", "Terraform"}}

	result, err := Score(c, j)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes", "Terraform"}, result.MissingSkills)
}

func TestScoreSalary(t *testing.T) {
	tests := []struct {
		name                   string
		candMin, candMax       *int
		jobMin, jobMax         *int
		want                   int
	}{
		{"candidate undisclosed", nil, nil, intPtr(40000), intPtr(60000), 100},
		{"job undisclosed", intPtr(50000), intPtr(70000), nil, nil, 100},
		{"identical point ranges", intPtr(50000), intPtr(50000), intPtr(50000), intPtr(50000), 100},
		{"partial overlap", intPtr(50000), intPtr(70000), intPtr(60000), intPtr(80000), 80},
		{"full containment", intPtr(60000), intPtr(65000), intPtr(50000), intPtr(80000), 100},
		{"small gap decays", intPtr(60000), intPtr(65000), intPtr(40000), intPtr(55000), 79},
		{"gap beyond half midpoint", intPtr(100000), nil, intPtr(40000), intPtr(60000), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &model.CandidateProfile{
				ExpectedSalaryMin: tt.candMin,
				ExpectedSalaryMax: tt.candMax,
				WorkStatus:        model.WorkStatusActivelyLooking,
			}
			j := &model.JobPosting{SalaryMin: tt.jobMin, SalaryMax: tt.jobMax}

			result, err := Score(c, j)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Breakdown[FactorSalary])
		})
	}
}

func TestScoreExperienceBands(t *testing.T) {
	tests := []struct {
		name  string
		title string
		years int
		want  int
	}{
		{"junior met", "Junior Developer", 1, 100},
		{"entry below floor", "Entry Level Assistant", 0, 20},
		{"senior underqualified", "Senior Engineer", 2, 40},
		{"lead met", "Team Lead", 6, 100},
		{"mid band", "Mid-level Analyst", 3, 100},
		{"default band", "Warehouse Operator", 1, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &model.CandidateProfile{ExperienceYears: tt.years, WorkStatus: model.WorkStatusActivelyLooking}
			j := &model.JobPosting{Title: tt.title}

			result, err := Score(c, j)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Breakdown[FactorExperience])
		})
	}
}

func TestScorePreferences(t *testing.T) {
	tests := []struct {
		name                     string
		prefShift, jobShift      string
		prefSetup, jobArrange    string
		want                     int
	}{
		{"both aligned", model.ShiftDay, model.ShiftDay, model.ArrangementRemote, model.ArrangementRemote, 100},
		{"one conflicts", model.ShiftNight, model.ShiftDay, model.ArrangementRemote, model.ArrangementRemote, 50},
		{"both conflict", model.ShiftNight, model.ShiftDay, model.ArrangementRemote, model.ArrangementOnsite, 0},
		{"flexible matches anything", model.ShiftFlexible, model.ShiftGraveyard, "", model.ArrangementHybrid, 100},
		{"unstated is non-constraining", "", model.ShiftDay, model.ArrangementHybrid, "", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &model.CandidateProfile{
				PreferredShift:     tt.prefShift,
				PreferredWorkSetup: tt.prefSetup,
				WorkStatus:         model.WorkStatusActivelyLooking,
			}
			j := &model.JobPosting{Shift: tt.jobShift, WorkArrangement: tt.jobArrange}

			result, err := Score(c, j)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Breakdown[FactorPreferences])
		})
	}
}

func TestScoreWorkStatus(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{model.WorkStatusActivelyLooking, 100},
		{model.WorkStatusOpenToOffers, 100},
		{"", 100},
		{model.WorkStatusEmployedNotLooking, 20},
		{model.WorkStatusNotAvailable, 20},
	}

	for _, tt := range tests {
		c := &model.CandidateProfile{WorkStatus: tt.status}
		result, err := Score(c, &model.JobPosting{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, result.Breakdown[FactorWorkStatus], "status %q", tt.status)
	}
}

func TestScoreReasonsAndConcernsOrderedByWeight(t *testing.T) {
	// Skills bottom out, work status bottoms out, everything else is strong
	c := &model.CandidateProfile{
		ExperienceYears: 3,
		WorkStatus:      model.WorkStatusEmployedNotLooking,
	}
	j := &model.JobPosting{
		Title:  "Operator",
		Skills: []string{"Go", "React"},
	}

	result, err := Score(c, j)
	require.NoError(t, err)

	// Concerns surface heaviest factor first: skills before work status
	require.Len(t, result.Concerns, 2)
	assert.Equal(t, "0 of 2 required skills matched", result.Concerns[0])
	assert.Equal(t, "candidate is not currently available for work", result.Concerns[1])

	// Salary, experience, preferences all scored 100 and become reasons
	require.Len(t, result.MatchReasons, 3)
	assert.Equal(t, "expected salary aligns with the offered range", result.MatchReasons[0])

	// 0*.35 + 100*.20 + 100*.20 + 100*.15 + 20*.10 = 57
	assert.Equal(t, 57, result.OverallScore)
}

func TestScoreExplanationsCapped(t *testing.T) {
	result, err := Score(baseCandidate(), baseJob())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.MatchReasons), 5)
	assert.LessOrEqual(t, len(result.Concerns), 5)
}

func TestScoreRejectsInvalidInput(t *testing.T) {
	t.Run("negative experience", func(t *testing.T) {
		c := &model.CandidateProfile{ExperienceYears: -1}
		_, err := Score(c, &model.JobPosting{})

		var invalid *model.ValidationError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "experienceYears", invalid.Field)
	})

	t.Run("inverted candidate salary range", func(t *testing.T) {
		c := &model.CandidateProfile{ExpectedSalaryMin: intPtr(80000), ExpectedSalaryMax: intPtr(50000)}
		_, err := Score(c, &model.JobPosting{})

		var invalid *model.ValidationError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("inverted job salary range", func(t *testing.T) {
		j := &model.JobPosting{SalaryMin: intPtr(80000), SalaryMax: intPtr(50000)}
		_, err := Score(&model.CandidateProfile{}, j)

		var invalid *model.ValidationError
		require.ErrorAs(t, err, &invalid)
	})
}
