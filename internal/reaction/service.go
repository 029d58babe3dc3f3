package reaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agora/internal/logger"
	"agora/internal/metrics"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the optimistic retry loop of Toggle.
const DefaultMaxAttempts = 3

// ToggleResult is returned to the caller of Toggle.
type ToggleResult struct {
	Action       Action `json:"action"`
	LikeCount    int64  `json:"likes"`
	DislikeCount int64  `json:"dislikes"`
	UserReaction Kind   `json:"user_reaction"`
}

// UserReactionView is the caller's stance plus live counters.
type UserReactionView struct {
	Kind         Kind  `json:"reaction_type"`
	HasLiked     bool  `json:"has_liked"`
	HasDisliked  bool  `json:"has_disliked"`
	LikeCount    int64 `json:"likes"`
	DislikeCount int64 `json:"dislikes"`
}

// Stats is the aggregate view of a target.
type Stats struct {
	LikeCount       int64 `json:"likes"`
	DislikeCount    int64 `json:"dislikes"`
	TotalLikedBy    int64 `json:"total_liked_by"`
	TotalDislikedBy int64 `json:"total_disliked_by"`
	TotalReactions  int64 `json:"total_reactions"`
}

// ReconcileResult reports what a reconciliation changed.
type ReconcileResult struct {
	Before  Target
	After   Target
	Drifted bool
}

type Service struct {
	store       Store
	gate        Gate
	observers   []Observer
	maxAttempts int
}

type Option func(*Service)

func WithGate(g Gate) Option {
	return func(s *Service) { s.gate = g }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, o) }
}

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
// The first counter repair within a Toggle does not use up an attempt.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Toggle applies a like or dislike request from userID to ref.
func (s *Service) Toggle(ctx context.Context, userID uint, ref TargetRef, requested Kind) (*ToggleResult, error) {
	if !requested.Requestable() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReactionKind, requested)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if userID == 0 {
		return nil, ErrUnknownUser
	}
	if s.gate != nil {
		if err := s.gate.CanReact(ctx, userID); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	defer func() {
		metrics.ReactionLatency.WithLabelValues(string(ref.Type)).Observe(time.Since(start).Seconds())
	}()

	if _, err := s.store.GetTarget(ctx, ref); err != nil {
		return nil, err
	}

	healed := false
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := s.store.GetReaction(ctx, userID, ref)
		if err != nil {
			return nil, fmt.Errorf("load reaction: %w", err)
		}
		t, err := Decide(current, requested)
		if err != nil {
			return nil, err
		}

		target, err := s.store.ApplyTransition(ctx, ref, userID, current, t)
		switch {
		case err == nil:
			result := ToggleResult{
				Action:       t.Action,
				LikeCount:    target.LikeCount,
				DislikeCount: target.DislikeCount,
				UserReaction: t.Next,
			}
			metrics.ReactionToggles.WithLabelValues(string(ref.Type), string(t.Action)).Inc()
			for _, o := range s.observers {
				o.ReactionChanged(ref, result)
			}
			return &result, nil
		case errors.Is(err, ErrConflict):
			metrics.ReactionRetries.WithLabelValues(string(ref.Type)).Inc()
			logger.Debug("reaction conflict, retrying",
				zap.Stringer("target", ref), zap.Uint("user_id", userID), zap.Int("attempt", attempt))
		case errors.Is(err, ErrCounterDrift):
			// Rebuild the counters from the rows, then recompute.
			logger.Warn("reaction counters drifted, reconciling",
				zap.Stringer("target", ref), zap.Uint("user_id", userID))
			if _, rerr := s.Reconcile(ctx, ref); rerr != nil {
				return nil, rerr
			}
			if !healed {
				healed = true
				attempt--
			}
		default:
			return nil, err
		}
	}

	metrics.ReactionExhausted.WithLabelValues(string(ref.Type)).Inc()
	logger.Warn("reaction retries exhausted",
		zap.Stringer("target", ref), zap.Uint("user_id", userID), zap.Int("attempts", s.maxAttempts))
	return nil, fmt.Errorf("%w: %d attempts on %s", ErrConcurrencyExhausted, s.maxAttempts, ref)
}

// GetUserReaction returns the user's stance and the target's counters.
func (s *Service) GetUserReaction(ctx context.Context, userID uint, ref TargetRef) (*UserReactionView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	target, err := s.store.GetTarget(ctx, ref)
	if err != nil {
		return nil, err
	}
	kind, err := s.store.GetReaction(ctx, userID, ref)
	if err != nil {
		return nil, fmt.Errorf("load reaction: %w", err)
	}
	return &UserReactionView{
		Kind:         kind,
		HasLiked:     kind == KindLike,
		HasDisliked:  kind == KindDislike,
		LikeCount:    target.LikeCount,
		DislikeCount: target.DislikeCount,
	}, nil
}

// GetStats returns the counters of ref and the number of users behind them.
func (s *Service) GetStats(ctx context.Context, ref TargetRef) (*Stats, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	target, err := s.store.GetTarget(ctx, ref)
	if err != nil {
		return nil, err
	}
	liked, disliked, err := s.store.CountReactors(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("count reactors: %w", err)
	}
	return &Stats{
		LikeCount:       target.LikeCount,
		DislikeCount:    target.DislikeCount,
		TotalLikedBy:    liked,
		TotalDislikedBy: disliked,
		TotalReactions:  target.LikeCount + target.DislikeCount,
	}, nil
}

// Reconcile rebuilds the counters of ref from its reaction rows.
func (s *Service) Reconcile(ctx context.Context, ref TargetRef) (*ReconcileResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	before, after, err := s.store.Reconcile(ctx, ref)
	if err != nil {
		return nil, err
	}
	drifted := before.LikeCount != after.LikeCount || before.DislikeCount != after.DislikeCount
	if drifted {
		metrics.CounterDrift.WithLabelValues(string(ref.Type)).Inc()
		logger.Info("reaction counters reconciled",
			zap.Stringer("target", ref),
			zap.Int64("likes_before", before.LikeCount), zap.Int64("likes_after", after.LikeCount),
			zap.Int64("dislikes_before", before.DislikeCount), zap.Int64("dislikes_after", after.DislikeCount))
	}
	return &ReconcileResult{Before: before, After: after, Drifted: drifted}, nil
}
