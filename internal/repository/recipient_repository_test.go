package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/notification-engine/internal/model"
)

func seedRecipient(t *testing.T, tdb *testDB, id string, rec RecipientEntity) {
	t.Helper()
	rec.ID = id
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, tdb.rawDB.Create(&rec).Error)
}

func recipientIDs(recs []*model.Recipient) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func TestRecipientRepository_Resolve(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewRecipientRepository(tdb.DB)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedRecipient(t, tdb, "parent-1", RecipientEntity{
		DistrictID: "district-1", SchoolID: "school-1", Role: "parent", CreatedAt: base,
	})
	seedRecipient(t, tdb, "parent-2", RecipientEntity{
		DistrictID: "district-1", SchoolID: "school-2", Role: "parent", CreatedAt: base.Add(time.Hour),
	})
	seedRecipient(t, tdb, "teacher-1", RecipientEntity{
		DistrictID: "district-1", SchoolID: "school-1", Role: "teacher", CreatedAt: base.Add(2 * time.Hour),
	})
	seedRecipient(t, tdb, "disabled-1", RecipientEntity{
		DistrictID: "district-1", SchoolID: "school-1", Role: "parent", Disabled: true, CreatedAt: base.Add(3 * time.Hour),
	})
	seedRecipient(t, tdb, "other-district", RecipientEntity{
		DistrictID: "district-2", SchoolID: "school-9", Role: "parent", CreatedAt: base,
	})

	t.Run("empty segment scopes to tenant and skips disabled", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"parent-1", "parent-2", "teacher-1"}, recipientIDs(recs))
	})

	t.Run("school scope narrows the audience", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "school-1", model.Segment{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"parent-1", "teacher-1"}, recipientIDs(recs))
	})

	t.Run("role filter", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{Roles: []string{"teacher"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"teacher-1"}, recipientIDs(recs))
	})

	t.Run("exclusions win over inclusions", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{
			UserIDs:        []string{"parent-1", "parent-2"},
			ExcludeUserIDs: []string{"parent-2"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"parent-1"}, recipientIDs(recs))
	})

	t.Run("include disabled flag", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "school-1", model.Segment{IncludeDisabled: true})
		require.NoError(t, err)
		assert.Contains(t, recipientIDs(recs), "disabled-1")
	})

	t.Run("ordered by account creation ascending", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "parent-1", recs[0].ID)
		assert.Equal(t, "parent-2", recs[1].ID)
		assert.Equal(t, "teacher-1", recs[2].ID)
	})
}

func TestRecipientRepository_ResolveGrades(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewRecipientRepository(tdb.DB)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedRecipient(t, tdb, "g3-bare", RecipientEntity{
		DistrictID: "district-1", Role: "student", Grade: "3", CreatedAt: base,
	})
	seedRecipient(t, tdb, "g3-phrase", RecipientEntity{
		DistrictID: "district-1", Role: "student", Grade: "Grade 3", CreatedAt: base.Add(time.Minute),
	})
	seedRecipient(t, tdb, "g3-ordinal", RecipientEntity{
		DistrictID: "district-1", Role: "student", Grade: "3rd grade", CreatedAt: base.Add(2 * time.Minute),
	})
	seedRecipient(t, tdb, "g13", RecipientEntity{
		DistrictID: "district-1", Role: "student", Grade: "13", CreatedAt: base.Add(3 * time.Minute),
	})
	seedRecipient(t, tdb, "kinder", RecipientEntity{
		DistrictID: "district-1", Role: "student", Grade: "K", CreatedAt: base.Add(4 * time.Minute),
	})

	t.Run("matches free-text variants, not substrings", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{Grades: []string{"3"}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"g3-bare", "g3-phrase", "g3-ordinal"}, recipientIDs(recs))
	})

	t.Run("non-numeric grade is matched whole", func(t *testing.T) {
		recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{Grades: []string{"K"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"kinder"}, recipientIDs(recs))
	})
}

func TestRecipientRepository_ResolveGradePaging(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewRecipientRepository(tdb.DB)
	ctx := context.Background()

	// more rows than one resolve page so the matcher walks several pages
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var entities []*RecipientEntity
	for i := 0; i < resolveBatchSize+50; i++ {
		grade := "4"
		if i%2 == 0 {
			grade = "5"
		}
		entities = append(entities, &RecipientEntity{
			ID:         fmt.Sprintf("rec-%05d", i),
			DistrictID: "district-1",
			Role:       "student",
			Grade:      grade,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, tdb.rawDB.CreateInBatches(entities, 200).Error)

	recs, err := repo.Resolve(ctx, "district-1", "", model.Segment{Grades: []string{"4"}})
	require.NoError(t, err)
	assert.Len(t, recs, (resolveBatchSize+50)/2)
	for _, r := range recs {
		assert.Equal(t, "4", r.Grade)
	}
}
