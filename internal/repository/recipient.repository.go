package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/segment"
	"github.com/classpulse/notification-engine/pkg/pg"
)

// resolveBatchSize is the page size used when the grade filter forces
// row-by-row matching against free-text grade data.
const resolveBatchSize = 1000

type RecipientRepository struct {
	*pg.DB
}

func NewRecipientRepository(db *pg.DB) *RecipientRepository {
	return &RecipientRepository{
		db,
	}
}

func (r *RecipientRepository) Create(ctx context.Context, rec *model.Recipient) (*model.Recipient, error) {
	entity := toRecipientEntity(rec)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toRecipientModel(entity), nil
}

// Resolve turns a message's segment into a concrete recipient list: scoped
// to the tenant (and school, when the message carries one), filtered by the
// segment predicate, grade-matched against free-text grade data, ordered by
// account creation time ascending and truncated silently at
// segment.MaxRecipients.
func (r *RecipientRepository) Resolve(ctx context.Context, tenantID, schoolID string, seg model.Segment) ([]*model.Recipient, error) {
	scoped := func() *gorm.DB {
		return r.Read(ctx).WithContext(ctx).
			Model(&RecipientEntity{}).
			Scopes(segment.Scope(tenantID, schoolID, seg)).
			Order("created_at")
	}

	matcher := segment.NewGradeMatcher(seg.Grades)
	if matcher.Empty() {
		var entities []*RecipientEntity
		if err := scoped().Limit(segment.MaxRecipients).Find(&entities).Error; err != nil {
			return nil, err
		}
		out := make([]*model.Recipient, len(entities))
		for i, e := range entities {
			out[i] = toRecipientModel(e)
		}
		return out, nil
	}

	// Grade data is free text, so the grade constraint cannot live in the
	// query. Page through the scoped rows and match in process, stopping
	// once the cap is reached.
	var out []*model.Recipient
	offset := 0
	for {
		var page []*RecipientEntity
		if err := scoped().Limit(resolveBatchSize).Offset(offset).Find(&page).Error; err != nil {
			return nil, err
		}
		for _, e := range page {
			if !matcher.Match(e.Grade) {
				continue
			}
			out = append(out, toRecipientModel(e))
			if len(out) >= segment.MaxRecipients {
				return out, nil
			}
		}
		if len(page) < resolveBatchSize {
			return out, nil
		}
		offset += resolveBatchSize
	}
}
