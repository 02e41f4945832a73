package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/crucible-ai/crucible/internal/models"
)

// Records is a typed codec over a Store. It owns key construction and JSON
// marshaling so callers never touch raw keys or payloads.
type Records struct {
	store Store
}

// NewRecords wraps a Store with the typed codec.
func NewRecords(s Store) *Records {
	return &Records{store: s}
}

// Store exposes the underlying Store, mainly for health checks.
func (r *Records) Store() Store {
	return r.store
}

func (r *Records) put(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return r.store.Set(ctx, key, data, 0)
}

func (r *Records) get(ctx context.Context, key string, v interface{}) error {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// SaveRequest persists a request record.
func (r *Records) SaveRequest(ctx context.Context, req *models.Request) error {
	return r.put(ctx, PrefixRequest+req.ID, req)
}

// GetRequest loads a request by id; ErrNotFound if absent or expired.
func (r *Records) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	if err := r.get(ctx, PrefixRequest+id, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SaveSession persists a session record.
func (r *Records) SaveSession(ctx context.Context, s *models.Session) error {
	return r.put(ctx, PrefixSession+s.ID, s)
}

// GetSession loads a session by id.
func (r *Records) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.get(ctx, PrefixSession+id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveArtifact persists an artifact record.
func (r *Records) SaveArtifact(ctx context.Context, a *models.Artifact) error {
	return r.put(ctx, PrefixArtifact+a.ID, a)
}

// GetArtifact loads an artifact by id.
func (r *Records) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	var a models.Artifact
	if err := r.get(ctx, PrefixArtifact+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveReview persists a review record.
func (r *Records) SaveReview(ctx context.Context, rv *models.Review) error {
	return r.put(ctx, PrefixReview+rv.ID, rv)
}

// GetReview loads a review by id.
func (r *Records) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var rv models.Review
	if err := r.get(ctx, PrefixReview+id, &rv); err != nil {
		return nil, err
	}
	return &rv, nil
}

// SaveRanking persists a ranking record.
func (r *Records) SaveRanking(ctx context.Context, rk *models.Ranking) error {
	return r.put(ctx, PrefixRanking+rk.ID, rk)
}

// GetRanking loads a ranking by id.
func (r *Records) GetRanking(ctx context.Context, id string) (*models.Ranking, error) {
	var rk models.Ranking
	if err := r.get(ctx, PrefixRanking+id, &rk); err != nil {
		return nil, err
	}
	return &rk, nil
}

// ListRequests returns all live requests, newest first.
func (r *Records) ListRequests(ctx context.Context) ([]*models.Request, error) {
	keys, err := r.store.ScanByPrefix(ctx, PrefixRequest)
	if err != nil {
		return nil, err
	}
	reqs := make([]*models.Request, 0, len(keys))
	for _, key := range keys {
		var req models.Request
		if err := r.get(ctx, key, &req); err != nil {
			// Key may have expired between scan and read
			continue
		}
		reqs = append(reqs, &req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	return reqs, nil
}

// SessionForRequest finds the session bound to a request, or ErrNotFound.
func (r *Records) SessionForRequest(ctx context.Context, requestID string) (*models.Session, error) {
	keys, err := r.store.ScanByPrefix(ctx, PrefixSession)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		var s models.Session
		if err := r.get(ctx, key, &s); err != nil {
			continue
		}
		if s.RequestID == requestID {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

// ArtifactsForSession returns a session's artifacts ordered by version.
func (r *Records) ArtifactsForSession(ctx context.Context, sessionID string) ([]*models.Artifact, error) {
	keys, err := r.store.ScanByPrefix(ctx, PrefixArtifact)
	if err != nil {
		return nil, err
	}
	var artifacts []*models.Artifact
	for _, key := range keys {
		var a models.Artifact
		if err := r.get(ctx, key, &a); err != nil {
			continue
		}
		if a.SessionID == sessionID {
			artifacts = append(artifacts, &a)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Version < artifacts[j].Version
	})
	return artifacts, nil
}

// ReviewsForSession returns a session's reviews in creation order.
func (r *Records) ReviewsForSession(ctx context.Context, sessionID string) ([]*models.Review, error) {
	keys, err := r.store.ScanByPrefix(ctx, PrefixReview)
	if err != nil {
		return nil, err
	}
	var reviews []*models.Review
	for _, key := range keys {
		var rv models.Review
		if err := r.get(ctx, key, &rv); err != nil {
			continue
		}
		if rv.SessionID == sessionID {
			reviews = append(reviews, &rv)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
	})
	return reviews, nil
}

// RankingsForSession returns a session's rankings in creation order.
func (r *Records) RankingsForSession(ctx context.Context, sessionID string) ([]*models.Ranking, error) {
	keys, err := r.store.ScanByPrefix(ctx, PrefixRanking)
	if err != nil {
		return nil, err
	}
	var rankings []*models.Ranking
	for _, key := range keys {
		var rk models.Ranking
		if err := r.get(ctx, key, &rk); err != nil {
			continue
		}
		if rk.SessionID == sessionID {
			rankings = append(rankings, &rk)
		}
	}
	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].CreatedAt.Before(rankings[j].CreatedAt)
	})
	return rankings, nil
}
