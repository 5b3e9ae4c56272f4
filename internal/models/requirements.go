package models

import (
	"fmt"

	"github.com/vaxwatch/vax-agent/pkg/textmatch"
)

// Match-anything value for the vaccine and fee requirement fields.
const Any = "ANY"

// Vaccine types the API reports.
const (
	VaccineCovishield = "COVISHIELD"
	VaccineCovaxin    = "COVAXIN"
	VaccineSputnik    = "SPUTNIK"
)

// Fee types the API reports.
const (
	FeeFree = "Free"
	FeePaid = "Paid"
)

// Requirements captures the user's hard filters and center preferences.
// Immutable after NewRequirements; the per-fragment matchers are precomputed
// once rather than on every poll.
type Requirements struct {
	VaccineType      string
	MinAge           int
	DoseSeq          int
	FeeType          string
	PreferredCenters []string

	centerMatchers []*textmatch.Matcher
}

// NewRequirements validates the fields and precomputes the preferred-center
// matchers. Zero values fall back to the most permissive setting.
func NewRequirements(vaccineType string, minAge, doseSeq int, feeType string,
	preferredCenters []string) (*Requirements, error) {

	if vaccineType == "" {
		vaccineType = Any
	}
	if feeType == "" {
		feeType = Any
	}
	if minAge == 0 {
		minAge = 18
	}
	if doseSeq == 0 {
		doseSeq = 1
	}

	switch vaccineType {
	case Any, VaccineCovishield, VaccineCovaxin, VaccineSputnik:
	default:
		return nil, fmt.Errorf("unknown vaccine type %q", vaccineType)
	}
	switch feeType {
	case Any, FeeFree, FeePaid:
	default:
		return nil, fmt.Errorf("unknown fee type %q", feeType)
	}
	if minAge != 18 && minAge != 45 {
		return nil, fmt.Errorf("min age must be 18 or 45, got %d", minAge)
	}
	if doseSeq != 1 && doseSeq != 2 {
		return nil, fmt.Errorf("dose sequence must be 1 or 2, got %d", doseSeq)
	}

	r := &Requirements{
		VaccineType:      vaccineType,
		MinAge:           minAge,
		DoseSeq:          doseSeq,
		FeeType:          feeType,
		PreferredCenters: preferredCenters,
	}
	for _, center := range preferredCenters {
		r.centerMatchers = append(r.centerMatchers, textmatch.NewMatcher(center))
	}
	return r, nil
}

// CenterNameScore returns the best similarity ratio between the given center
// name and any preferred-center fragment, 0 when none are configured.
func (r *Requirements) CenterNameScore(centerName string) float64 {
	best := 0.0
	for _, m := range r.centerMatchers {
		if ratio := m.Ratio(centerName); ratio > best {
			best = ratio
		}
	}
	return best
}
