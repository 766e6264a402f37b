package model

import "time"

// Email authentication check results as reported by the domain verifier.
const AuthStatusPass = "pass"

// NotificationSettings holds a tenant's channel eligibility configuration.
// A row with an empty SchoolID is the tenant-wide default; a row carrying a
// SchoolID overrides it for that school.
type NotificationSettings struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	SchoolID    string `json:"school_id,omitempty"`
	SPFStatus   string `json:"spf_status"`
	DKIMStatus  string `json:"dkim_status"`
	DMARCStatus string `json:"dmarc_status"`
	SMSOptIn    bool   `json:"sms_opt_in"`

	UpdatedAt time.Time `json:"updated_at"`
}

// EmailVerified reports whether all three email authentication checks pass.
func (s *NotificationSettings) EmailVerified() bool {
	return s.SPFStatus == AuthStatusPass &&
		s.DKIMStatus == AuthStatusPass &&
		s.DMARCStatus == AuthStatusPass
}
