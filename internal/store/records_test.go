package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crucible-ai/crucible/internal/models"
)

func newTestRecords(t *testing.T) *Records {
	t.Helper()
	s, _ := newTestRedisStore(t)
	return NewRecords(s)
}

func TestRecordsRequestRoundTrip(t *testing.T) {
	r := newTestRecords(t)
	ctx := context.Background()

	req := models.NewRequest("write a parser", "go", "")
	require.NoError(t, r.SaveRequest(ctx, req))

	got, err := r.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, req.ID, got.ID)
	require.Equal(t, models.StatusPending, got.Status)
}

func TestRecordsGetMissing(t *testing.T) {
	r := newTestRecords(t)

	_, err := r.GetRequest(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordsListRequestsNewestFirst(t *testing.T) {
	r := newTestRecords(t)
	ctx := context.Background()

	older := models.NewRequest("first", "python", "")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := models.NewRequest("second", "python", "")
	require.NoError(t, r.SaveRequest(ctx, older))
	require.NoError(t, r.SaveRequest(ctx, newer))

	reqs, err := r.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	require.Equal(t, newer.ID, reqs[0].ID)
	require.Equal(t, older.ID, reqs[1].ID)
}

func TestRecordsSessionForRequest(t *testing.T) {
	r := newTestRecords(t)
	ctx := context.Background()

	session := models.NewSession("req-42", 3)
	require.NoError(t, r.SaveSession(ctx, session))

	got, err := r.SessionForRequest(ctx, "req-42")
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)

	_, err = r.SessionForRequest(ctx, "req-other")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordsArtifactsForSessionOrdered(t *testing.T) {
	r := newTestRecords(t)
	ctx := context.Background()

	// Save out of order; retrieval must sort by version.
	v2 := models.NewArtifact("req", "sess", "code v2", "", 2)
	v1 := models.NewArtifact("req", "sess", "code v1", "", 1)
	other := models.NewArtifact("req", "other-sess", "noise", "", 1)
	require.NoError(t, r.SaveArtifact(ctx, v2))
	require.NoError(t, r.SaveArtifact(ctx, v1))
	require.NoError(t, r.SaveArtifact(ctx, other))

	artifacts, err := r.ArtifactsForSession(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	require.Equal(t, 1, artifacts[0].Version)
	require.Equal(t, 2, artifacts[1].Version)
}

func TestRecordsRankingsForSessionOrdered(t *testing.T) {
	r := newTestRecords(t)
	ctx := context.Background()

	first := &models.Ranking{ID: "rk1", SessionID: "sess", CreatedAt: time.Now().UTC().Add(-time.Minute)}
	second := &models.Ranking{ID: "rk2", SessionID: "sess", CreatedAt: time.Now().UTC()}
	require.NoError(t, r.SaveRanking(ctx, second))
	require.NoError(t, r.SaveRanking(ctx, first))

	rankings, err := r.RankingsForSession(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	require.Equal(t, "rk1", rankings[0].ID)
	require.Equal(t, "rk2", rankings[1].ID)
}
