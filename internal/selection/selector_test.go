package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxwatch/vax-agent/internal/models"
	"github.com/vaxwatch/vax-agent/pkg/textmatch"
)

func mustRequirements(t *testing.T, vaccine string, minAge, dose int, fee string, centers []string) *models.Requirements {
	t.Helper()
	reqs, err := models.NewRequirements(vaccine, minAge, dose, fee, centers)
	require.NoError(t, err)
	return reqs
}

func openSession(name string) models.Session {
	return models.Session{
		SessionID:              "sess-" + name,
		Name:                   name,
		AvailableCapacity:      5,
		AvailableCapacityDose1: 5,
		AvailableCapacityDose2: 5,
		FeeType:                models.FeeFree,
		Vaccine:                models.VaccineCovishield,
		MinAgeLimit:            18,
		Slots:                  []string{"09:00AM-11:00AM"},
	}
}

// TestIsEligible_FeeMismatch tests that a Free requirement rejects Paid
// sessions regardless of anything else.
func TestIsEligible_FeeMismatch(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.FeeFree, nil)

	session := openSession("Any Center")
	session.FeeType = models.FeePaid

	assert.False(t, IsEligible(reqs, &session))
}

// TestIsEligible_NoCapacity tests that zero total capacity disqualifies even
// with positive per-dose capacity.
func TestIsEligible_NoCapacity(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.Any, nil)

	session := openSession("Any Center")
	session.AvailableCapacity = 0
	session.AvailableCapacityDose1 = 3

	assert.False(t, IsEligible(reqs, &session))
}

// TestIsEligible_DoseCapacity tests the per-dose gate for both sequences.
func TestIsEligible_DoseCapacity(t *testing.T) {
	session := openSession("Any Center")
	session.AvailableCapacityDose2 = 0

	dose1 := mustRequirements(t, models.Any, 18, 1, models.Any, nil)
	dose2 := mustRequirements(t, models.Any, 18, 2, models.Any, nil)

	assert.True(t, IsEligible(dose1, &session))
	assert.False(t, IsEligible(dose2, &session))
}

// TestIsEligible_AgeLimit tests that the user must qualify for the session's
// minimum age bracket.
func TestIsEligible_AgeLimit(t *testing.T) {
	session := openSession("Any Center")
	session.MinAgeLimit = 45

	young := mustRequirements(t, models.Any, 18, 1, models.Any, nil)
	older := mustRequirements(t, models.Any, 45, 1, models.Any, nil)

	assert.False(t, IsEligible(young, &session))
	assert.True(t, IsEligible(older, &session))
}

// TestIsEligible_VaccineMismatch tests the vaccine gate.
func TestIsEligible_VaccineMismatch(t *testing.T) {
	reqs := mustRequirements(t, models.VaccineCovaxin, 18, 1, models.Any, nil)

	session := openSession("Any Center")
	assert.False(t, IsEligible(reqs, &session))

	session.Vaccine = models.VaccineCovaxin
	assert.True(t, IsEligible(reqs, &session))
}

// TestScore_NoPreferredCenters tests that scoring is flat without preferences.
func TestScore_NoPreferredCenters(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.Any, nil)

	session := openSession("Civic Center A")
	assert.Equal(t, 0.0, Score(reqs, &session))
}

// TestScore_TenTimesBestRatio tests the score formula above and below the
// noise threshold.
func TestScore_TenTimesBestRatio(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.Any, []string{"Civic Center"})

	exact := openSession("Civic Center")
	assert.InDelta(t, 10.0, Score(reqs, &exact), 1e-9)

	near := openSession("Civic Center A")
	ratio := textmatch.Ratio("Civic Center", "Civic Center A")
	require.Greater(t, ratio, 0.2)
	assert.InDelta(t, 10*ratio, Score(reqs, &near), 1e-9)

	unrelated := openSession("Zzz")
	require.LessOrEqual(t, textmatch.Ratio("Civic Center", "Zzz"), 0.2)
	assert.Equal(t, 0.0, Score(reqs, &unrelated))
}

// TestRank_FiltersAndOrders tests the end-to-end ranking scenario: the
// preferred center sorts ahead of an equally bookable one.
func TestRank_FiltersAndOrders(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.Any, []string{"Civic Center"})

	sessions := []models.Session{
		openSession("Remote Clinic"),
		openSession("Civic Center A"),
	}

	ranked := Rank(reqs, sessions)

	require.Len(t, ranked, 2)
	assert.Equal(t, "Civic Center A", ranked[0].Name)
	assert.Equal(t, "Remote Clinic", ranked[1].Name)
}

// TestRank_NeverReturnsIneligible tests that filtered-out sessions do not
// appear in the output.
func TestRank_NeverReturnsIneligible(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.FeeFree, []string{"Civic Center"})

	full := openSession("Civic Center")
	full.AvailableCapacity = 0
	paid := openSession("Civic Center B")
	paid.FeeType = models.FeePaid

	ranked := Rank(reqs, []models.Session{full, paid, openSession("Remote Clinic")})

	require.Len(t, ranked, 1)
	assert.Equal(t, "Remote Clinic", ranked[0].Name)
}

// TestRank_StableOnTies tests that equal scores keep the API's ordering.
func TestRank_StableOnTies(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.Any, nil)

	sessions := []models.Session{
		openSession("First"),
		openSession("Second"),
		openSession("Third"),
	}

	ranked := Rank(reqs, sessions)

	require.Len(t, ranked, 3)
	assert.Equal(t, "First", ranked[0].Name)
	assert.Equal(t, "Second", ranked[1].Name)
	assert.Equal(t, "Third", ranked[2].Name)
}

// TestRank_Empty tests that no eligible session yields an empty slice.
func TestRank_Empty(t *testing.T) {
	reqs := mustRequirements(t, models.Any, 18, 1, models.Any, nil)
	assert.Empty(t, Rank(reqs, nil))
}
