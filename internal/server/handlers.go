package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirukang/fortunecast/internal/database"
	"github.com/mirukang/fortunecast/internal/recommend"
)

// Responder generates a recommendation reply for a normalized request
// within a session. Implemented by recommend.Service.
type Responder interface {
	Respond(ctx context.Context, req recommend.CanonicalRequest, sessionID string) (string, error)
}

type handler struct {
	svc   Responder
	store database.Store
	log   *slog.Logger
}

func (h *handler) registerRoutes(engine *gin.Engine) {
	engine.POST("/fortune", h.fortune)
	engine.POST("/recommend", h.recommend)
	engine.GET("/healthz", h.healthz)
}

// fortune is the lenient endpoint: missing business fields are defaulted,
// never rejected. Only a structurally invalid JSON body fails.
func (h *handler) fortune(c *gin.Context) {
	var raw recommend.RawRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	sessionID := raw.SessionIDOrDefault()
	req := recommend.Normalize(raw)

	reply, err := h.svc.Respond(c.Request.Context(), req, sessionID)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Recommendation request failed",
			"session_id", sessionID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate recommendation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// recommend is the strict endpoint variant: question and user_info are
// required and their absence is a client error.
func (h *handler) recommend(c *gin.Context) {
	var raw recommend.RawRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	// An empty user_info object carries no profile data and counts as absent.
	if raw.Question == "" || raw.UserInfo == nil || *raw.UserInfo == (recommend.RawUserInfo{}) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both 'question' and 'user_info' fields are required."})
		return
	}

	sessionID := raw.SessionIDOrDefault()
	req := recommend.Normalize(raw)

	reply, err := h.svc.Respond(c.Request.Context(), req, sessionID)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Recommendation request failed",
			"session_id", sessionID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate recommendation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendation": reply})
}

// healthz reports liveness of the service and its history store.
func (h *handler) healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.WarnContext(c.Request.Context(), "Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
