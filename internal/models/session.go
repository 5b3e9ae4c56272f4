package models

// Session is one bookable slot window at a center, as reported by the
// sessions lookup. Re-fetched on every poll, never persisted.
type Session struct {
	CenterID               int      `json:"center_id"`
	SessionID              string   `json:"session_id"`
	Name                   string   `json:"name"`
	Date                   string   `json:"date"`
	AvailableCapacity      int      `json:"available_capacity"`
	AvailableCapacityDose1 int      `json:"available_capacity_dose1"`
	AvailableCapacityDose2 int      `json:"available_capacity_dose2"`
	FeeType                string   `json:"fee_type"`
	Vaccine                string   `json:"vaccine"`
	MinAgeLimit            int      `json:"min_age_limit"`
	Slots                  []string `json:"slots"`
}

// DoseCapacity returns the remaining capacity for the given dose sequence.
func (s *Session) DoseCapacity(doseSeq int) int {
	if doseSeq == 2 {
		return s.AvailableCapacityDose2
	}
	return s.AvailableCapacityDose1
}

// SessionsResponse is the body of the sessions-by-pincode lookup.
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// Beneficiary identifies a person the account may book for. Fetched once per
// run.
type Beneficiary struct {
	ReferenceID string `json:"beneficiary_reference_id"`
	Name        string `json:"name"`
	Vaccine     string `json:"vaccine"`
}

// BeneficiariesResponse is the body of the beneficiaries lookup.
type BeneficiariesResponse struct {
	Beneficiaries []Beneficiary `json:"beneficiaries"`
}

// BookingRequest is the schedule-appointment payload.
type BookingRequest struct {
	Dose          int      `json:"dose"`
	SessionID     string   `json:"session_id"`
	Slot          string   `json:"slot"`
	Beneficiaries []string `json:"beneficiaries"`
}

// BookingConfirmation is the schedule-appointment response.
type BookingConfirmation struct {
	AppointmentConfirmationNo string `json:"appointment_confirmation_no"`
}
