package models

// ShareRecord is the authoritative participant list for one shared path.
// Participants[0] is the owner; the rest are beneficiaries in insertion
// order, without duplicates. Writable is fixed at share creation and
// applies to every beneficiary of the record.
type ShareRecord struct {
	OwnerPath    string   `json:"owner_path"`
	Participants []string `json:"participants"`
	Writable     bool     `json:"writable"`
}

// Beneficiaries returns the participants minus the owner.
func (r *ShareRecord) Beneficiaries() []string {
	if len(r.Participants) <= 1 {
		return nil
	}
	return r.Participants[1:]
}

// HasBeneficiary reports whether user is a beneficiary of the record.
func (r *ShareRecord) HasBeneficiary(user string) bool {
	for _, p := range r.Beneficiaries() {
		if p == user {
			return true
		}
	}
	return false
}
