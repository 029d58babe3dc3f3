package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"agora/internal/logger"
	"agora/internal/models"
	"agora/internal/reaction"
	"agora/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rankingQueueSize = 1000
	rankingBatchSize = 50
	rankingInterval  = 500 * time.Millisecond
)

// RankingService 异步重新计算帖子的热度 Score
type RankingService struct {
	db      *gorm.DB
	queue   chan uint // 待更新的帖子 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
	now     func() time.Time
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{
		db:      db,
		queue:   make(chan uint, rankingQueueSize),
		pending: make(map[uint]bool),
		now:     time.Now,
	}
}

// ReactionChanged schedules a score refresh when a post's counters move.
func (s *RankingService) ReactionChanged(ref reaction.TargetRef, _ reaction.ToggleResult) {
	if ref.Type == reaction.TargetPost {
		s.ScheduleUpdate(ref.ID)
	}
}

// ScheduleUpdate 将帖子加入更新队列（异步），已在队列中的帖子会被跳过
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		logger.Warn("ranking queue full, dropping update", zap.Uint("post_id", postID))
	}
}

// Start runs the batching worker until ctx is cancelled.
func (s *RankingService) Start(ctx context.Context) {
	go s.worker(ctx)
}

func (s *RankingService) worker(ctx context.Context) {
	batch := make([]uint, 0, rankingBatchSize)
	ticker := time.NewTicker(rankingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				s.processBatch(context.Background(), batch)
			}
			return
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= rankingBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, postIDs []uint) {
	for _, postID := range postIDs {
		// 先清除 pending，处理期间的新变更会重新入队
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()

		if err := s.UpdatePostScore(ctx, postID); err != nil {
			logger.Warn("post score update failed", zap.Uint("post_id", postID), zap.Error(err))
		}
	}
}

// UpdatePostScore 同步计算并更新单个帖子的 Score
func (s *RankingService) UpdatePostScore(ctx context.Context, postID uint) error {
	tx := s.db.WithContext(ctx)

	var post models.Post
	err := tx.Select("id", "like_count", "dislike_count", "views", "created_at").Take(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // deleted since it was scheduled
	}
	if err != nil {
		return fmt.Errorf("load post %d: %w", postID, err)
	}

	var comments int64
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		return fmt.Errorf("count comments of post %d: %w", postID, err)
	}

	score := utils.CalculateScore(post.CreatedAt, s.now(), post.LikeCount, post.DislikeCount, post.Views, int(comments))
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("score", int(score)).Error; err != nil {
		return fmt.Errorf("update score of post %d: %w", postID, err)
	}
	return nil
}
