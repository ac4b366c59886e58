package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/internal/testutil"
	"github.com/campus-orgs/backend/pkg/apperr"
)

func TestRepository(t *testing.T) {
	pool := testutil.NewPostgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	t.Run("public profile carries username", func(t *testing.T) {
		testutil.Reset(t, pool)
		id := testutil.InsertUser(t, pool, "Ada Lovelace", "ada")

		p, err := repo.GetPublic(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "ada", p.Username)
		assert.Equal(t, "Ada Lovelace", p.Name)

		_, err = repo.GetPublic(ctx, uuid.New())
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("onboarding marks the user onboarded", func(t *testing.T) {
		testutil.Reset(t, pool)
		id := testutil.InsertUser(t, pool, "", "ada")

		before, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, before.Onboarded)
		assert.Nil(t, before.Birthday)

		birthday := time.Date(2004, 12, 10, 0, 0, 0, 0, time.UTC)
		u, err := repo.UpdateOnboarding(ctx, id, models.Onboarding{
			FirstName: "Ada", LastName: "Lovelace",
			AcademicYear: "Junior", AcademicMajor: "Mathematics", AcademicUniversity: "State University",
			GraduationYear: "2028", City: "Springfield", State: "IL",
			Phone: "5551234567", Birthday: birthday,
		})
		require.NoError(t, err)
		assert.True(t, u.Onboarded)
		assert.Equal(t, "Ada Lovelace", u.Name)
		assert.Equal(t, "Mathematics", u.AcademicMajor)
		require.NotNil(t, u.Birthday)
		assert.Equal(t, "2004-12-10", u.Birthday.Format(models.DateLayout))

		_, err = repo.UpdateOnboarding(ctx, uuid.New(), models.Onboarding{FirstName: "X", Birthday: birthday})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("explore matches name or username", func(t *testing.T) {
		testutil.Reset(t, pool)
		testutil.InsertUser(t, pool, "Ada Lovelace", "ada")
		testutil.InsertUser(t, pool, "Grace Hopper", "amazing_grace")
		testutil.InsertUser(t, pool, "Alan Turing", "alan")

		list, err := repo.Explore(ctx, "LOVE", 20)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "ada", list[0].Username)

		list, err = repo.Explore(ctx, "amazing", 20)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Grace Hopper", list[0].Name)

		list, err = repo.Explore(ctx, "e_H", 20)
		require.NoError(t, err)
		assert.Empty(t, list, "underscore is matched literally")
	})
}
