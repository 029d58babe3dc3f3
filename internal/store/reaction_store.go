package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agora/internal/models"
	"agora/internal/reaction"

	"gorm.io/gorm"
)

// ReactionStore keeps reactions in the reactions table and the counters on
// the posts and comments rows.
type ReactionStore struct {
	db *gorm.DB
}

func NewReactionStore(db *gorm.DB) *ReactionStore {
	return &ReactionStore{db: db}
}

type counterRow struct {
	ID           uint
	LikeCount    int64
	DislikeCount int64
}

func (r counterRow) target(ref reaction.TargetRef) reaction.Target {
	return reaction.Target{Ref: ref, LikeCount: r.LikeCount, DislikeCount: r.DislikeCount}
}

// targetModel returns the gorm model that carries the counters of ref.
func targetModel(ref reaction.TargetRef) (interface{}, error) {
	switch ref.Type {
	case reaction.TargetPost:
		return &models.Post{}, nil
	case reaction.TargetComment:
		return &models.Comment{}, nil
	}
	return nil, fmt.Errorf("%w: type %q", reaction.ErrInvalidTarget, ref.Type)
}

func reactionKey(tx *gorm.DB, userID uint, ref reaction.TargetRef) *gorm.DB {
	return tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, string(ref.Type), ref.ID)
}

// GetReaction 查询用户当前的反应，没有记录视为 None
func (s *ReactionStore) GetReaction(ctx context.Context, userID uint, ref reaction.TargetRef) (reaction.Kind, error) {
	var row models.Reaction
	err := reactionKey(s.db.WithContext(ctx), userID, ref).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reaction.KindNone, nil
	}
	if err != nil {
		return reaction.KindNone, fmt.Errorf("query reaction: %w", err)
	}
	return reaction.Kind(row.Value), nil
}

func (s *ReactionStore) GetTarget(ctx context.Context, ref reaction.TargetRef) (reaction.Target, error) {
	return s.readTarget(s.db.WithContext(ctx), ref)
}

func (s *ReactionStore) readTarget(tx *gorm.DB, ref reaction.TargetRef) (reaction.Target, error) {
	model, err := targetModel(ref)
	if err != nil {
		return reaction.Target{}, err
	}
	var row counterRow
	err = tx.Model(model).Select("id", "like_count", "dislike_count").Where("id = ?", ref.ID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reaction.Target{}, reaction.ErrTargetNotFound
	}
	if err != nil {
		return reaction.Target{}, fmt.Errorf("query %s: %w", ref, err)
	}
	return row.target(ref), nil
}

// ApplyTransition 在同一事务中更新反应记录和计数器
//
// The reaction row is guarded by its version column, so two writers that
// read the same state cannot both commit. The counters only move through
// col = col + ? with a guard that keeps them non-negative.
func (s *ReactionStore) ApplyTransition(ctx context.Context, ref reaction.TargetRef, userID uint, current reaction.Kind, t reaction.Transition) (reaction.Target, error) {
	model, err := targetModel(ref)
	if err != nil {
		return reaction.Target{}, err
	}

	var out reaction.Target
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := writeReaction(tx, ref, userID, current, t.Next); err != nil {
			return err
		}

		res := tx.Model(model).
			Where("id = ?", ref.ID).
			Where("like_count + ? >= 0 AND dislike_count + ? >= 0", t.LikeDelta, t.DislikeDelta).
			UpdateColumns(map[string]interface{}{
				"like_count":    gorm.Expr("like_count + ?", t.LikeDelta),
				"dislike_count": gorm.Expr("dislike_count + ?", t.DislikeDelta),
			})
		if res.Error != nil {
			return fmt.Errorf("update counters of %s: %w", ref, res.Error)
		}
		if res.RowsAffected == 0 {
			// Either the content is gone or a counter would go negative.
			if _, err := s.readTarget(tx, ref); err != nil {
				return err
			}
			return reaction.ErrCounterDrift
		}

		out, err = s.readTarget(tx, ref)
		return err
	})
	if err != nil {
		return reaction.Target{}, err
	}
	return out, nil
}

func writeReaction(tx *gorm.DB, ref reaction.TargetRef, userID uint, current, next reaction.Kind) error {
	var existing models.Reaction
	err := reactionKey(tx, userID, ref).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if current != reaction.KindNone {
			return reaction.ErrConflict
		}
		row := models.Reaction{
			UserID:     userID,
			TargetType: string(ref.Type),
			TargetID:   ref.ID,
			Value:      int(next),
			Version:    1,
		}
		if err := tx.Create(&row).Error; err != nil {
			// A concurrent first reaction from the same user won the insert.
			if isUniqueViolation(err) {
				return reaction.ErrConflict
			}
			return fmt.Errorf("insert reaction: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("query reaction: %w", err)
	}

	if reaction.Kind(existing.Value) != current {
		return reaction.ErrConflict
	}
	res := tx.Model(&models.Reaction{}).
		Where("id = ? AND version = ?", existing.ID, existing.Version).
		UpdateColumns(map[string]interface{}{
			"value":      int(next),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("update reaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return reaction.ErrConflict
	}
	return nil
}

// isUniqueViolation relies on TranslateError in db.Config.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// CountReactors 统计点赞/点踩的用户数
func (s *ReactionStore) CountReactors(ctx context.Context, ref reaction.TargetRef) (int64, int64, error) {
	var rows []struct {
		Value int
		Total int64
	}
	err := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("value, COUNT(*) AS total").
		Where("target_type = ? AND target_id = ? AND value <> 0", string(ref.Type), ref.ID).
		Group("value").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("count reactions of %s: %w", ref, err)
	}

	var liked, disliked int64
	for _, r := range rows {
		switch reaction.Kind(r.Value) {
		case reaction.KindLike:
			liked = r.Total
		case reaction.KindDislike:
			disliked = r.Total
		}
	}
	return liked, disliked, nil
}

// Reconcile recounts the reaction rows of ref and overwrites its counters.
// The target row is locked first (a self-assignment), so toggles that have
// not reached their counter update yet will apply their delta on top of the
// recount.
func (s *ReactionStore) Reconcile(ctx context.Context, ref reaction.TargetRef) (reaction.Target, reaction.Target, error) {
	model, err := targetModel(ref)
	if err != nil {
		return reaction.Target{}, reaction.Target{}, err
	}

	var before, after reaction.Target
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ?", ref.ID).
			UpdateColumn("like_count", gorm.Expr("like_count"))
		if res.Error != nil {
			return fmt.Errorf("lock %s: %w", ref, res.Error)
		}
		if res.RowsAffected == 0 {
			return reaction.ErrTargetNotFound
		}

		if before, err = s.readTarget(tx, ref); err != nil {
			return err
		}
		liked, disliked, err := NewReactionStore(tx).CountReactors(ctx, ref)
		if err != nil {
			return err
		}
		if liked != before.LikeCount || disliked != before.DislikeCount {
			err = tx.Model(model).Where("id = ?", ref.ID).
				UpdateColumns(map[string]interface{}{
					"like_count":    liked,
					"dislike_count": disliked,
				}).Error
			if err != nil {
				return fmt.Errorf("rewrite counters of %s: %w", ref, err)
			}
		}
		after, err = s.readTarget(tx, ref)
		return err
	})
	if err != nil {
		return reaction.Target{}, reaction.Target{}, err
	}
	return before, after, nil
}

// TargetIDs pages through the ids of one target type in ascending order,
// starting after afterID.
func (s *ReactionStore) TargetIDs(ctx context.Context, typ reaction.TargetType, afterID uint, limit int) ([]uint, error) {
	model, err := targetModel(reaction.TargetRef{Type: typ})
	if err != nil {
		return nil, err
	}
	var ids []uint
	err = s.db.WithContext(ctx).Model(model).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", typ, err)
	}
	return ids, nil
}
