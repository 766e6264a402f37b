package model

// Segment is the declarative audience filter attached to a message. Values
// within a field are OR'd; non-empty fields are AND'd against each other.
// An empty field places no constraint. A segment is immutable once the
// message has been resolved.
type Segment struct {
	Roles           []string `json:"roles,omitempty"`
	UserIDs         []string `json:"user_ids,omitempty"`
	ExcludeUserIDs  []string `json:"exclude_user_ids,omitempty"`
	SchoolIDs       []string `json:"school_ids,omitempty"`
	DistrictIDs     []string `json:"district_ids,omitempty"`
	Grades          []string `json:"grades,omitempty"`
	IncludeDisabled bool     `json:"include_disabled,omitempty"`
}

// IsZero reports whether the segment places no constraint at all, meaning
// the audience is everyone in the message's tenant/school scope.
func (s Segment) IsZero() bool {
	return len(s.Roles) == 0 &&
		len(s.UserIDs) == 0 &&
		len(s.ExcludeUserIDs) == 0 &&
		len(s.SchoolIDs) == 0 &&
		len(s.DistrictIDs) == 0 &&
		len(s.Grades) == 0 &&
		!s.IncludeDisabled
}
