package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agora/internal/logger"
	"agora/internal/reaction"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reconcileLockKey = "agora:reaction:reconcile:lock"

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TargetLister pages through target ids.
type TargetLister interface {
	TargetIDs(ctx context.Context, typ reaction.TargetType, afterID uint, limit int) ([]uint, error)
}

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Checked int
	Drifted int
}

// Reconciler rebuilds every target's counters from its reaction rows once a
// day. With a redis client only one process per cluster runs a pass.
type Reconciler struct {
	svc     *reaction.Service
	lister  TargetLister
	rdb     *redis.Client
	hour    int
	batch   int
	lockTTL time.Duration
}

// NewReconciler builds a reconciler. rdb may be nil for single-process
// deployments.
func NewReconciler(svc *reaction.Service, lister TargetLister, rdb *redis.Client, hour, batch int) *Reconciler {
	if hour < 0 || hour > 23 {
		hour = 3
	}
	if batch <= 0 {
		batch = 200
	}
	return &Reconciler{
		svc:     svc,
		lister:  lister,
		rdb:     rdb,
		hour:    hour,
		batch:   batch,
		lockTTL: time.Hour,
	}
}

// RunOnce reconciles every post and comment.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	for _, typ := range []reaction.TargetType{reaction.TargetPost, reaction.TargetComment} {
		var after uint
		for {
			ids, err := r.lister.TargetIDs(ctx, typ, after, r.batch)
			if err != nil {
				return report, err
			}
			if len(ids) == 0 {
				break
			}
			for _, id := range ids {
				res, err := r.svc.Reconcile(ctx, reaction.TargetRef{Type: typ, ID: id})
				if errors.Is(err, reaction.ErrTargetNotFound) {
					continue // deleted during the pass
				}
				if err != nil {
					return report, fmt.Errorf("reconcile %s/%d: %w", typ, id, err)
				}
				report.Checked++
				if res.Drifted {
					report.Drifted++
				}
			}
			after = ids[len(ids)-1]
		}
	}
	return report, nil
}

// Start 启动每日定时对账任务
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		for {
			wait := time.Until(nextRun(time.Now(), r.hour))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			r.runLocked(ctx)
		}
	}()
}

func (r *Reconciler) runLocked(ctx context.Context) {
	release, ok, err := r.acquire(ctx)
	if err != nil {
		logger.Error("reconcile lock failed", zap.Error(err))
		return
	}
	if !ok {
		logger.Info("reconcile already running elsewhere, skipping")
		return
	}
	defer release()

	logger.Info("reaction reconcile started")
	report, err := r.RunOnce(ctx)
	if err != nil {
		logger.Error("reaction reconcile failed", zap.Error(err), zap.Int("checked", report.Checked))
		return
	}
	logger.Info("reaction reconcile finished", zap.Int("checked", report.Checked), zap.Int("drifted", report.Drifted))
}

// acquire takes the cluster-wide lock. Without redis it always succeeds.
func (r *Reconciler) acquire(ctx context.Context) (func(), bool, error) {
	if r.rdb == nil {
		return func() {}, true, nil
	}
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, reconcileLockKey, token, r.lockTTL).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		if err := unlockScript.Run(context.Background(), r.rdb, []string{reconcileLockKey}, token).Err(); err != nil {
			logger.Warn("reconcile unlock failed", zap.Error(err))
		}
	}
	return release, true, nil
}

// nextRun returns the next time at hour:00 strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
