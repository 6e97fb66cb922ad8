package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mikeboe/research-agent/pkg/agent"
	"github.com/mikeboe/research-agent/pkg/validation"
)

type Handler struct {
	Service *Service
	Logger  *slog.Logger

	// Health flags reported by GET /health.
	SearchConfigured bool
	LLMConfigured    bool
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: s, Logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.health)

	authed := r.Group("/", APIKeyAuth(apiKey, h.Logger))
	{
		authed.POST("/research", h.research)
		authed.GET("/ws/research", h.researchWS)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"service":           "research-agent",
		"search_configured": h.SearchConfigured,
		"llm_configured":    h.LLMConfigured,
	})
}

// checkMaxResults rejects an explicit out-of-range max_results. An absent
// field is fine; the service applies the default.
func checkMaxResults(req *ResearchRequest) error {
	if req.MaxResults != nil && (*req.MaxResults < 1 || *req.MaxResults > maxMaxResults) {
		return fmt.Errorf("max_results must be between 1 and %d", maxMaxResults)
	}
	return nil
}

// validate sanitizes the query and session ID in place. A non-nil return is
// a client error the caller maps to 400.
func validate(req *ResearchRequest) error {
	query, err := validation.SanitizeQuery(req.Query)
	if err != nil {
		return err
	}
	sessionID, err := validation.ValidateSessionID(req.SessionID)
	if err != nil {
		return err
	}
	req.Query = query
	req.SessionID = sessionID
	return nil
}

func (h *Handler) research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}
	if err := checkMaxResults(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := validate(&req); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := h.Service.Run(c.Request.Context(), req, nil)
	if st.Stage == agent.StageFailed {
		h.Logger.Error("Research request failed", "session_id", st.SessionID, "error", st.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "research failed, please try again"})
		return
	}

	c.JSON(http.StatusOK, Response(st))
}
