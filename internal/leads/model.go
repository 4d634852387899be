// Package leads keeps a Postgres ledger of every caller who supplied
// contact details, so the office can follow up manually when automated
// booking could not finish the job.
package leads

import "time"

// Lead is one caller's collected details and call outcome.
type Lead struct {
	CallID              string     `json:"call_id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Address             string     `json:"address"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	IssueType           string     `json:"issue_type,omitempty"`
	IssueDescription    string     `json:"issue_description,omitempty"`
	Urgency             string     `json:"urgency"`
	Outcome             string     `json:"outcome"`
	BookingReference    string     `json:"booking_reference,omitempty"`
	SlotStart           *time.Time `json:"slot_start,omitempty"`
	Contacted           bool       `json:"contacted"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
