package reaction

import "context"

// Store is the persistence boundary of the reaction core.
type Store interface {
	// GetReaction returns KindNone when the user never reacted.
	GetReaction(ctx context.Context, userID uint, ref TargetRef) (Kind, error)
	// GetTarget returns ErrTargetNotFound for missing content.
	GetTarget(ctx context.Context, ref TargetRef) (Target, error)
	// ApplyTransition moves the user's reaction from current to t.Next and
	// applies t's deltas to the target counters in one transaction. It
	// returns ErrConflict if the stored reaction is no longer current.
	ApplyTransition(ctx context.Context, ref TargetRef, userID uint, current Kind, t Transition) (Target, error)
	// CountReactors counts live like and dislike rows for the target.
	CountReactors(ctx context.Context, ref TargetRef) (liked, disliked int64, err error)
	// Reconcile rewrites the target counters from its reaction rows and
	// returns the counters before and after.
	Reconcile(ctx context.Context, ref TargetRef) (before, after Target, err error)
}

// Gate decides whether a user may react at all. It is supplied by the
// account layer; the engine only calls it.
type Gate interface {
	CanReact(ctx context.Context, userID uint) error
}

// Observer is told about every committed toggle, after commit.
type Observer interface {
	ReactionChanged(ref TargetRef, result ToggleResult)
}
