// Package selection turns a raw session list into a ranked set of bookable
// candidates. Eligibility is a hard gate; ranking only reflects how close a
// center's name is to the user's preferred centers.
package selection

import (
	"sort"

	"github.com/vaxwatch/vax-agent/internal/models"
)

// Threshold below which a center-name match is treated as noise.
const minCenterAffinity = 0.2

// IsEligible reports whether the session satisfies every hard requirement.
func IsEligible(reqs *models.Requirements, session *models.Session) bool {
	if session.AvailableCapacity < 1 {
		return false
	}
	if reqs.FeeType != models.Any && session.FeeType != reqs.FeeType {
		return false
	}
	if reqs.VaccineType != models.Any && session.Vaccine != reqs.VaccineType {
		return false
	}
	if reqs.MinAge < session.MinAgeLimit {
		return false
	}
	if session.DoseCapacity(reqs.DoseSeq) < 1 {
		return false
	}
	return true
}

// Score ranks an eligible session by preferred-center affinity. Sessions whose
// best name match does not clear the noise threshold all score 0 and keep
// their API order.
func Score(reqs *models.Requirements, session *models.Session) float64 {
	centerScore := reqs.CenterNameScore(session.Name)
	if centerScore > minCenterAffinity {
		return 10 * centerScore
	}
	return 0
}

// Rank filters the sessions by eligibility and sorts them by descending score.
// The sort is stable so equal scores preserve the API's ordering. An empty
// result means nothing is bookable this poll.
func Rank(reqs *models.Requirements, sessions []models.Session) []models.Session {
	var eligible []models.Session
	for i := range sessions {
		if IsEligible(reqs, &sessions[i]) {
			eligible = append(eligible, sessions[i])
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return Score(reqs, &eligible[i]) > Score(reqs, &eligible[j])
	})

	return eligible
}
