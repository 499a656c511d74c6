package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/peakstate/internal/errors"
	ai "github.com/hrygo/peakstate/plugin/ai"
	"github.com/hrygo/peakstate/plugin/ai/cache"
	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/metrics"
)

// StatsResponse aggregates the operator-facing counters.
type StatsResponse struct {
	Cache    cache.Stats   `json:"cache"`
	Backends metrics.Stats `json:"backends"`
	Intent   intent.Stats  `json:"intent"`
}

// InvalidateResponse reports how much cache was dropped for a user.
type InvalidateResponse struct {
	UserID      string `json:"user_id"`
	KeysDeleted int    `json:"keys_deleted"`
}

// POST /api/v1/chat
func (s *Server) chat(c echo.Context) error {
	var req ai.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	resp, err := s.orchestrator.Respond(c.Request().Context(), req)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GET /api/v1/ai/stats
func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Cache:    s.cacheManager.Stats(),
		Backends: s.aggregator.Snapshot(),
		Intent:   s.classifier.Stats(),
	})
}

// DELETE /api/v1/cache/users/:id
func (s *Server) invalidateUserCache(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user id is required"})
	}

	deleted, err := s.cacheManager.InvalidateUser(c.Request().Context(), userID)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, InvalidateResponse{UserID: userID, KeysDeleted: deleted})
}

// GET /healthz
func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.profile.Version,
	})
}

func (s *Server) errorResponse(c echo.Context, err error) error {
	code := aierrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case aierrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case aierrors.ErrCodeGenerationFailed, aierrors.ErrCodeBackendUnavailable:
		status = http.StatusBadGateway
	case aierrors.ErrCodeServiceUnavailable, aierrors.ErrCodeContextCanceled:
		status = http.StatusServiceUnavailable
	case aierrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	return c.JSON(status, map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}
