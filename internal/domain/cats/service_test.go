package cats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"gatitown/internal/authz"
	"gatitown/internal/platform/logger"
	"gatitown/internal/platform/metrics"
	"gatitown/internal/ports/auth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID   map[string]Cat
	writes int
	err    error

	// beforeReview corre antes de aplicar una revisión (simula otra escritura concurrente)
	beforeReview func()
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Cat{}}
}

func (r *testRepo) Create(ctx context.Context, c Cat) error {
	if r.err != nil {
		return r.err
	}
	r.writes++
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Cat, error) {
	c, ok := r.byID[id]
	if !ok {
		return Cat{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) List(ctx context.Context, f Filter) ([]Cat, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]Cat, 0)
	for _, c := range r.byID {
		if f.ReviewStatus != "" && c.ReviewStatus != f.ReviewStatus {
			continue
		}
		if f.AdoptionStatus != "" && c.AdoptionStatus != f.AdoptionStatus {
			continue
		}
		out = append(out, c)
	}
	// orden arbitrario a propósito: el servicio tiene que ordenar
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testRepo) UpdateReviewStatus(ctx context.Context, id string, s ReviewStatus) error {
	if r.beforeReview != nil {
		r.beforeReview()
	}
	c, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if c.ReviewStatus == s {
		return nil
	}
	if c.ReviewStatus != ReviewPending {
		return ErrBadState
	}
	r.writes++
	c.ReviewStatus = s
	r.byID[id] = c
	return nil
}

func (r *testRepo) UpdateAdoptionStatus(ctx context.Context, id string, s AdoptionStatus) error {
	c, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.writes++
	c.AdoptionStatus = s
	r.byID[id] = c
	return nil
}

// -------------------------
// Helpers
// -------------------------

var (
	admin  = auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}
	user   = auth.Claims{UserID: "user-1", Role: auth.RoleUser}
	nobody = auth.Claims{}
)

func newTestService(t *testing.T) (*Service, *testRepo, *time.Time) {
	t.Helper()
	repo := newTestRepo()
	svc := NewService(repo, Options{})

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	return svc, repo, &now
}

func validPayload(t *testing.T, overrides map[string]any) Payload {
	t.Helper()
	base := map[string]any{
		"name":             "Michi",
		"sex":              "MALE",
		"neighborhood":     "Centro",
		"shortDescription": "Muy cariñoso y juguetón",
		"fullDescription":  "Lo encontramos bajo la lluvia hace dos semanas...",
		"rescuerName":      "Ana",
		"rescuerPhone":     "664-123-4567",
		"primaryPhotoUrl":  "https://x/photo.jpg",
	}
	for k, v := range overrides {
		if v == nil {
			delete(base, k)
			continue
		}
		base[k] = v
	}

	b, err := json.Marshal(base)
	require.NoError(t, err)
	var p Payload
	require.NoError(t, json.Unmarshal(b, &p))
	return p
}

func seed(t *testing.T, repo *testRepo, id string, review ReviewStatus, adoption AdoptionStatus, created time.Time) {
	t.Helper()
	repo.byID[id] = Cat{
		ID:             id,
		Name:           "Gato " + id,
		Sex:            SexUnknown,
		ReviewStatus:   review,
		AdoptionStatus: adoption,
		CreatedAt:      created,
		Photos:         []Photo{{ID: id + "-p", CatID: id, URL: "https://x/" + id + ".jpg", IsPrimary: true}},
	}
}

func ids(items []Cat) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}

// -------------------------
// Submit
// -------------------------

func TestSubmitCreatesPendingAvailableCat(t *testing.T) {
	svc, repo, _ := newTestService(t)

	c, err := svc.Submit(context.Background(), validPayload(t, nil))
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, ReviewPending, c.ReviewStatus)
	assert.Equal(t, AdoptionAvailable, c.AdoptionStatus)
	assert.Equal(t, DefaultCity, c.City)
	assert.Nil(t, c.AgeMonths)
	assert.False(t, c.Sterilized)

	require.Len(t, c.Photos, 1)
	assert.True(t, c.Photos[0].IsPrimary)
	assert.Equal(t, c.ID, c.Photos[0].CatID)
	assert.NotEmpty(t, c.Photos[0].ID)

	stored, ok := repo.byID[c.ID]
	require.True(t, ok)
	assert.Equal(t, c.CreatedAt, stored.CreatedAt)
}

func TestSubmitInvalidPersistsNothing(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), validPayload(t, map[string]any{"rescuerPhone": nil}))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("rescuerPhone"))
	assert.Equal(t, 0, repo.writes)
	assert.Empty(t, repo.byID)
}

func TestSubmitShortFullDescriptionCollectsEveryField(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), validPayload(t, map[string]any{
		"fullDescription": "0123456789",
		"sex":             "DOG",
	}))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at least 20 characters", verr.Message("fullDescription"))
	assert.True(t, verr.Has("sex"))
	assert.False(t, verr.Has("name"))
	assert.False(t, verr.Has("neighborhood"))
	assert.Len(t, verr.Fields, 2)
}

func TestSubmitRepoErrorIsWrapped(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.err = errors.New("db down")

	_, err := svc.Submit(context.Background(), validPayload(t, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create cat")
}

func TestSubmitRecordsMetrics(t *testing.T) {
	repo := newTestRepo()
	reg := prometheus.NewRegistry()
	svc := NewService(repo, Options{Metrics: metrics.New(reg)})

	_, err := svc.Submit(context.Background(), validPayload(t, nil))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), validPayload(t, map[string]any{"name": nil}))
	require.Error(t, err)

	expected := `
# HELP cats_submissions_total Public cat submissions by result.
# TYPE cats_submissions_total counter
cats_submissions_total{result="created"} 1
cats_submissions_total{result="invalid"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cats_submissions_total"))
}

// -------------------------
// Listings
// -------------------------

func TestListAvailableOnlyApprovedAndAvailable(t *testing.T) {
	svc, repo, _ := newTestService(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, repo, "a", ReviewApproved, AdoptionAvailable, base)
	seed(t, repo, "b", ReviewApproved, AdoptionReserved, base.Add(time.Hour))
	seed(t, repo, "c", ReviewPending, AdoptionAvailable, base.Add(2*time.Hour))
	seed(t, repo, "d", ReviewRejected, AdoptionAvailable, base.Add(3*time.Hour))
	seed(t, repo, "e", ReviewApproved, AdoptionAvailable, base.Add(4*time.Hour))

	items, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "a"}, ids(items))
	for _, c := range items {
		assert.Equal(t, ReviewApproved, c.ReviewStatus)
		assert.Equal(t, AdoptionAvailable, c.AdoptionStatus)
	}
}

func TestAdminListsOrderedNewestFirst(t *testing.T) {
	svc, repo, _ := newTestService(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, repo, "p-old", ReviewPending, AdoptionAvailable, base)
	seed(t, repo, "p-new", ReviewPending, AdoptionAvailable, base.Add(time.Hour))
	seed(t, repo, "ap-1", ReviewApproved, AdoptionAdopted, base)
	seed(t, repo, "ap-2", ReviewApproved, AdoptionReserved, base.Add(2*time.Hour))

	pending, err := svc.ListPending(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-new", "p-old"}, ids(pending))

	approved, err := svc.ListApproved(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"ap-2", "ap-1"}, ids(approved))

	// Una publicación nueva queda primera
	c, err := svc.Submit(context.Background(), validPayload(t, nil))
	require.NoError(t, err)
	pending, err = svc.ListPending(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, c.ID, pending[0].ID)
}

func TestAdminListsRequireAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ListPending(context.Background(), nobody)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	_, err = svc.ListApproved(context.Background(), user)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = svc.Stats(context.Background(), user)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestPrimaryPhotoFallbackAndOrdering(t *testing.T) {
	svc, repo, _ := newTestService(t)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.byID["x"] = Cat{
		ID: "x", ReviewStatus: ReviewApproved, AdoptionStatus: AdoptionAvailable, CreatedAt: created,
		Photos: []Photo{
			{ID: "1", URL: "https://x/1.jpg"},
			{ID: "2", URL: "https://x/2.jpg", IsPrimary: true},
		},
	}
	repo.byID["y"] = Cat{
		ID: "y", ReviewStatus: ReviewApproved, AdoptionStatus: AdoptionAvailable, CreatedAt: created.Add(-time.Hour),
		Photos: []Photo{
			{ID: "3", URL: "https://x/3.jpg"},
			{ID: "4", URL: "https://x/4.jpg"},
		},
	}

	items, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	x := items[0]
	assert.Equal(t, "2", x.Photos[0].ID)
	assert.True(t, x.Photos[0].IsPrimary)
	assert.False(t, x.Photos[1].IsPrimary)

	y := items[1]
	assert.Equal(t, "3", y.Photos[0].ID)
	assert.True(t, y.Photos[0].IsPrimary)
	assert.False(t, y.Photos[1].IsPrimary)
}

func TestGetPublicHidesNonListedCats(t *testing.T) {
	svc, repo, _ := newTestService(t)
	now := time.Now()
	seed(t, repo, "ok", ReviewApproved, AdoptionAvailable, now)
	seed(t, repo, "pending", ReviewPending, AdoptionAvailable, now)
	seed(t, repo, "adopted", ReviewApproved, AdoptionAdopted, now)

	c, err := svc.GetPublic(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", c.ID)

	for _, id := range []string{"pending", "adopted", "missing"} {
		_, err := svc.GetPublic(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}

	_, err = svc.GetPublic(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatsCounts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	now := time.Now()
	seed(t, repo, "1", ReviewPending, AdoptionAvailable, now)
	seed(t, repo, "2", ReviewApproved, AdoptionAvailable, now)
	seed(t, repo, "3", ReviewApproved, AdoptionReserved, now)
	seed(t, repo, "4", ReviewApproved, AdoptionAdopted, now)
	seed(t, repo, "5", ReviewApproved, AdoptionAdopted, now)
	seed(t, repo, "6", ReviewRejected, AdoptionAvailable, now)

	st, err := svc.Stats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pending: 1, Approved: 4, Available: 1, Reserved: 1, Adopted: 2}, st)
}

// -------------------------
// Review
// -------------------------

func TestReviewApproveMakesCatPubliclyVisible(t *testing.T) {
	svc, _, _ := newTestService(t)

	c, err := svc.Submit(context.Background(), validPayload(t, nil))
	require.NoError(t, err)

	items, err := svc.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := svc.Review(context.Background(), admin, c.ID, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, ReviewApproved, got.ReviewStatus)

	items, err = svc.ListAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids(items))
}

func TestReviewRejectAndTerminalStates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(t, repo, "c1", ReviewPending, AdoptionAvailable, time.Now())

	got, err := svc.Review(context.Background(), admin, "c1", ActionReject)
	require.NoError(t, err)
	assert.Equal(t, ReviewRejected, got.ReviewStatus)
	writes := repo.writes

	// misma acción: no-op
	got, err = svc.Review(context.Background(), admin, "c1", ActionReject)
	require.NoError(t, err)
	assert.Equal(t, ReviewRejected, got.ReviewStatus)
	assert.Equal(t, writes, repo.writes)

	// acción opuesta sobre un estado terminal
	_, err = svc.Review(context.Background(), admin, "c1", ActionApprove)
	assert.ErrorIs(t, err, ErrBadState)
	assert.Equal(t, ReviewRejected, repo.byID["c1"].ReviewStatus)
}

func TestReviewConcurrentOppositeDecisionKeepsFirst(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(t, repo, "c1", ReviewPending, AdoptionAvailable, time.Now())

	// otro admin rechaza entre la lectura y la escritura
	repo.beforeReview = func() {
		c := repo.byID["c1"]
		c.ReviewStatus = ReviewRejected
		repo.byID["c1"] = c
	}

	_, err := svc.Review(context.Background(), admin, "c1", ActionApprove)
	assert.ErrorIs(t, err, ErrBadState)
	assert.Equal(t, ReviewRejected, repo.byID["c1"].ReviewStatus)
	assert.Zero(t, repo.writes)
}

func TestReviewValidationAndNotFound(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(t, repo, "c1", ReviewPending, AdoptionAvailable, time.Now())

	_, err := svc.Review(context.Background(), admin, "c1", ReviewAction("maybe"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("action"))

	_, err = svc.Review(context.Background(), admin, "missing", ActionApprove)
	assert.ErrorIs(t, err, ErrNotFound)

	// espacios alrededor de la acción se toleran
	got, err := svc.Review(context.Background(), admin, "c1", ReviewAction(" approve "))
	require.NoError(t, err)
	assert.Equal(t, ReviewApproved, got.ReviewStatus)
}

func TestUnauthorizedCallersNeverMutate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(t, repo, "c1", ReviewPending, AdoptionAvailable, time.Now())

	for _, caller := range []auth.Claims{nobody, user} {
		_, err := svc.Review(context.Background(), caller, "c1", ActionApprove)
		assert.Error(t, err)
		_, err = svc.SetAdoptionStatus(context.Background(), caller, "c1", AdoptionAdopted)
		assert.Error(t, err)

		// el guard corre antes que la validación del input
		_, err = svc.Review(context.Background(), caller, "c1", ReviewAction("bogus"))
		assert.True(t, errors.Is(err, authz.ErrUnauthenticated) || errors.Is(err, authz.ErrForbidden))
	}

	assert.Equal(t, 0, repo.writes)
	assert.Equal(t, ReviewPending, repo.byID["c1"].ReviewStatus)
	assert.Equal(t, AdoptionAvailable, repo.byID["c1"].AdoptionStatus)
}

// -------------------------
// Adoption
// -------------------------

func TestSetAdoptionStatusAnyToAny(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(t, repo, "c1", ReviewApproved, AdoptionAvailable, time.Now())

	for _, s := range []AdoptionStatus{AdoptionReserved, AdoptionAdopted, AdoptionAvailable, AdoptionAdopted, AdoptionReserved} {
		got, err := svc.SetAdoptionStatus(context.Background(), admin, "c1", s)
		require.NoError(t, err)
		assert.Equal(t, s, got.AdoptionStatus)
		assert.Equal(t, s, repo.byID["c1"].AdoptionStatus)
	}

	writes := repo.writes
	_, err := svc.SetAdoptionStatus(context.Background(), admin, "c1", AdoptionReserved)
	require.NoError(t, err)
	assert.Equal(t, writes, repo.writes)
}

func TestSetAdoptionStatusInvalid(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seed(t, repo, "c1", ReviewApproved, AdoptionAvailable, time.Now())

	_, err := svc.SetAdoptionStatus(context.Background(), admin, "c1", AdoptionStatus("SOLD"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("adoptionStatus"))

	_, err = svc.SetAdoptionStatus(context.Background(), admin, "nope", AdoptionReserved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAdoptionStatusOnPendingCatIsAllowedButWarned(t *testing.T) {
	var buf bytes.Buffer
	repo := newTestRepo()
	svc := NewService(repo, Options{
		Logger: logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf}),
	})
	seed(t, repo, "c1", ReviewPending, AdoptionAvailable, time.Now())

	got, err := svc.SetAdoptionStatus(context.Background(), admin, "c1", AdoptionReserved)
	require.NoError(t, err)
	assert.Equal(t, AdoptionReserved, got.AdoptionStatus)
	assert.Contains(t, buf.String(), "adoption status changed on non-approved cat")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
