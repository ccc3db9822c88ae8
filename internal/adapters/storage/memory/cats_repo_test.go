package memory

import (
	"context"
	"testing"
	"time"

	"gatitown/internal/domain/cats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCat(t *testing.T, repo cats.Repository, id string, created time.Time, rs cats.ReviewStatus, as cats.AdoptionStatus) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), cats.Cat{
		ID:             id,
		Name:           "Cat " + id,
		ReviewStatus:   rs,
		AdoptionStatus: as,
		CreatedAt:      created,
		Photos:         []cats.Photo{{ID: "p-" + id, CatID: id, URL: "https://x/" + id + ".jpg", IsPrimary: true}},
	}))
}

func TestCatRepo_ListFiltersAndOrdersNewestFirst(t *testing.T) {
	repo := NewCatRepo()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedCat(t, repo, "a", base, cats.ReviewApproved, cats.AdoptionAvailable)
	seedCat(t, repo, "b", base.Add(time.Hour), cats.ReviewApproved, cats.AdoptionReserved)
	seedCat(t, repo, "c", base.Add(2*time.Hour), cats.ReviewApproved, cats.AdoptionAvailable)
	seedCat(t, repo, "d", base.Add(3*time.Hour), cats.ReviewPending, cats.AdoptionAvailable)

	ctx := context.Background()

	available, err := repo.List(ctx, cats.Filter{ReviewStatus: cats.ReviewApproved, AdoptionStatus: cats.AdoptionAvailable})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(available))

	approved, err := repo.List(ctx, cats.Filter{ReviewStatus: cats.ReviewApproved})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(approved))

	all, err := repo.List(ctx, cats.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCatRepo_UpdatesAndNotFound(t *testing.T) {
	repo := NewCatRepo()
	ctx := context.Background()
	seedCat(t, repo, "a", time.Now(), cats.ReviewPending, cats.AdoptionAvailable)

	require.NoError(t, repo.UpdateReviewStatus(ctx, "a", cats.ReviewApproved))
	require.NoError(t, repo.UpdateAdoptionStatus(ctx, "a", cats.AdoptionAdopted))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, cats.ReviewApproved, got.ReviewStatus)
	assert.Equal(t, cats.AdoptionAdopted, got.AdoptionStatus)

	// la revisión es terminal: repetirla es no-op, cambiarla no
	require.NoError(t, repo.UpdateReviewStatus(ctx, "a", cats.ReviewApproved))
	assert.ErrorIs(t, repo.UpdateReviewStatus(ctx, "a", cats.ReviewRejected), cats.ErrBadState)
	got, err = repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, cats.ReviewApproved, got.ReviewStatus)

	assert.ErrorIs(t, repo.UpdateReviewStatus(ctx, "zzz", cats.ReviewApproved), cats.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateAdoptionStatus(ctx, "zzz", cats.AdoptionAdopted), cats.ErrNotFound)
	_, err = repo.GetByID(ctx, "zzz")
	assert.ErrorIs(t, err, cats.ErrNotFound)
}

func TestCatRepo_ReturnsCopies(t *testing.T) {
	repo := NewCatRepo()
	ctx := context.Background()
	seedCat(t, repo, "a", time.Now(), cats.ReviewPending, cats.AdoptionAvailable)

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	got.Photos[0].URL = "mutated"

	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://x/a.jpg", again.Photos[0].URL)
}

func ids(cs []cats.Cat) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}
