package model

import "time"

// Recipient is a deliverable account resolved from a segment. Grade is
// free-text as it comes from roster imports ("3", "Grade 3", "3rd grade")
// and is matched, never normalized.
type Recipient struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       string    `json:"role"`
	SchoolID   string    `json:"school_id,omitempty"`
	DistrictID string    `json:"district_id"`
	Grade      string    `json:"grade,omitempty"`
	Disabled   bool      `json:"disabled"`
	CreatedAt  time.Time `json:"created_at"`
}
