package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"agora/internal/middleware"
	"agora/internal/reaction"
	"agora/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	svc     *reaction.Service
	timeout time.Duration
}

// NewReactionHandler builds the handler. A positive timeout bounds each
// toggle; when it fires the transaction is rolled back.
func NewReactionHandler(svc *reaction.Service, timeout time.Duration) *ReactionHandler {
	return &ReactionHandler{svc: svc, timeout: timeout}
}

type toggleRequest struct {
	Kind string `json:"kind" form:"kind" binding:"required"`
}

type counts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

type reactionBar struct {
	Type        reaction.TargetType
	ID          uint
	Path        string
	Likes       int64
	Dislikes    int64
	HasLiked    bool
	HasDisliked bool
}

// Toggle 点赞/点踩切换，body: {"kind": "like" | "dislike"}
func (h *ReactionHandler) Toggle(c *gin.Context) {
	ref, ok := parseTarget(c)
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := reaction.ParseKind(req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	h.toggle(c, ref, kind)
}

// Like toggles a like.
func (h *ReactionHandler) Like(c *gin.Context) {
	if ref, ok := parseTarget(c); ok {
		h.toggle(c, ref, reaction.KindLike)
	}
}

// Dislike toggles a dislike.
func (h *ReactionHandler) Dislike(c *gin.Context) {
	if ref, ok := parseTarget(c); ok {
		h.toggle(c, ref, reaction.KindDislike)
	}
}

func (h *ReactionHandler) toggle(c *gin.Context, ref reaction.TargetRef, kind reaction.Kind) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.svc.Toggle(ctx, middleware.CurrentUserID(c), ref, kind)
	if err != nil {
		respondError(c, err)
		return
	}

	if isHTMX(c) {
		c.HTML(http.StatusOK, "reaction/bar.html", newReactionBar(ref, res.LikeCount, res.DislikeCount, res.UserReaction))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Mine returns the caller's reaction and the target's counters.
func (h *ReactionHandler) Mine(c *gin.Context) {
	ref, ok := parseTarget(c)
	if !ok {
		return
	}
	view, err := h.svc.GetUserReaction(c.Request.Context(), middleware.CurrentUserID(c), ref)
	if err != nil {
		respondError(c, err)
		return
	}

	if isHTMX(c) {
		c.HTML(http.StatusOK, "reaction/bar.html", newReactionBar(ref, view.LikeCount, view.DislikeCount, view.Kind))
		return
	}
	c.JSON(http.StatusOK, view)
}

// Stats is public: counters plus the number of users behind them.
func (h *ReactionHandler) Stats(c *gin.Context) {
	ref, ok := parseTarget(c)
	if !ok {
		return
	}
	stats, err := h.svc.GetStats(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Reconcile rebuilds a target's counters from its reaction rows.
func (h *ReactionHandler) Reconcile(c *gin.Context) {
	ref, ok := parseTarget(c)
	if !ok {
		return
	}
	res, err := h.svc.Reconcile(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"drifted": res.Drifted,
		"before":  counts{Likes: res.Before.LikeCount, Dislikes: res.Before.DislikeCount},
		"after":   counts{Likes: res.After.LikeCount, Dislikes: res.After.DislikeCount},
	})
}

// parseTarget reads :type and :id. It writes the 400 itself.
func parseTarget(c *gin.Context) (reaction.TargetRef, bool) {
	typ, err := reaction.ParseTargetType(c.Param("type"))
	if err != nil {
		respondError(c, err)
		return reaction.TargetRef{}, false
	}
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		respondError(c, fmt.Errorf("%w: id %q", reaction.ErrInvalidTarget, c.Param("id")))
		return reaction.TargetRef{}, false
	}
	return reaction.TargetRef{Type: typ, ID: id}, true
}

func newReactionBar(ref reaction.TargetRef, likes, dislikes int64, kind reaction.Kind) reactionBar {
	return reactionBar{
		Type:        ref.Type,
		ID:          ref.ID,
		Path:        fmt.Sprintf("/api/%ss/%d", ref.Type, ref.ID),
		Likes:       likes,
		Dislikes:    dislikes,
		HasLiked:    kind == reaction.KindLike,
		HasDisliked: kind == reaction.KindDislike,
	}
}
