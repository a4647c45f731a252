package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	apikeydomain "github.com/athenajq/lunchline/internal/apikey/domain"
	"github.com/athenajq/lunchline/internal/authorization"
)

type createAPIKeyRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) ListAPIKeys(c *gin.Context) {
	orgID, _, err := s.authorizeOrgAction(c, authorization.ObjectScheduleConfig, authorization.ActionConfigWrite)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	keys, err := s.apikeySvc.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": keys})
}

func (s *Server) CreateAPIKey(c *gin.Context) {
	orgID, _, err := s.authorizeOrgAction(c, authorization.ObjectScheduleConfig, authorization.ActionConfigWrite)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.apikeySvc.Create(c.Request.Context(), orgID, apikeydomain.CreateRequest{
		Name:      strings.TrimSpace(req.Name),
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) RevokeAPIKey(c *gin.Context) {
	orgID, _, err := s.authorizeOrgAction(c, authorization.ObjectScheduleConfig, authorization.ActionConfigWrite)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	raw := strings.TrimSpace(c.Param("id"))
	keyID, parseErr := snowflake.ParseString(raw)
	if raw == "" || parseErr != nil || keyID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "api key id is malformed"))
		return
	}

	if err := s.apikeySvc.Revoke(c.Request.Context(), orgID, keyID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
