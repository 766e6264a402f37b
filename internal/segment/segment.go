// Package segment centralizes the audience filtering rules: the store-side
// predicate built from a message's segment, and the free-text grade matcher
// applied on top of it.
package segment

import (
	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
)

// MaxRecipients is the hard fan-out ceiling. Resolution past the cap
// truncates silently, keeping the oldest accounts first.
const MaxRecipients = 5000

// Scope builds the recipient predicate for a message's tenant/school scope
// and segment. Every non-empty segment field ANDs into the query; values
// within a field OR via IN. Grades are deliberately absent here: the grade
// field is free text and goes through the GradeMatcher after the query.
func Scope(tenantID, schoolID string, seg model.Segment) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("district_id = ?", tenantID)
		if schoolID != "" {
			db = db.Where("school_id = ?", schoolID)
		}
		if len(seg.SchoolIDs) > 0 {
			db = db.Where("school_id IN ?", seg.SchoolIDs)
		}
		if len(seg.DistrictIDs) > 0 {
			db = db.Where("district_id IN ?", seg.DistrictIDs)
		}
		if len(seg.Roles) > 0 {
			db = db.Where("role IN ?", seg.Roles)
		}
		if len(seg.UserIDs) > 0 {
			db = db.Where("id IN ?", seg.UserIDs)
		}
		if len(seg.ExcludeUserIDs) > 0 {
			db = db.Where("id NOT IN ?", seg.ExcludeUserIDs)
		}
		if !seg.IncludeDisabled {
			db = db.Where("disabled = ?", false)
		}
		return db
	}
}
