package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/reaction"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: love", reaction.ErrInvalidReactionKind), http.StatusBadRequest},
		{reaction.ErrInvalidTarget, http.StatusBadRequest},
		{reaction.ErrUnknownUser, http.StatusUnauthorized},
		{reaction.ErrReactionForbidden, http.StatusForbidden},
		{reaction.ErrTargetNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: 3 attempts", reaction.ErrConcurrencyExhausted), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorHidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, reaction.ErrConcurrencyExhausted)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestParseTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "type", Value: "comments"}, {Key: "id", Value: "12"}}

	ref, ok := parseTarget(c)
	assert.True(t, ok)
	assert.Equal(t, reaction.TargetRef{Type: reaction.TargetComment, ID: 12}, ref)

	w := httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "type", Value: "posts"}, {Key: "id", Value: "0"}}
	_, ok = parseTarget(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
