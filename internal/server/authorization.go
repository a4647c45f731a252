package server

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// authorizeOrgAction resolves the caller's org and user identity and checks
// the capability, returning both IDs for the handler.
func (s *Server) authorizeOrgAction(c *gin.Context, object string, action string) (snowflake.ID, snowflake.ID, error) {
	if s.authzSvc == nil {
		return 0, 0, ErrForbidden
	}
	userID, ok := s.userIDFromRequest(c)
	if !ok {
		return 0, 0, ErrUnauthorized
	}
	orgID, err := s.orgIDFromRequest(c)
	if err != nil {
		return 0, 0, err
	}
	if err := s.authorizeForOrg(c, userID, orgID, object, action); err != nil {
		return 0, 0, err
	}
	return orgID, userID, nil
}

func (s *Server) authorizeForOrg(c *gin.Context, userID snowflake.ID, orgID snowflake.ID, object string, action string) error {
	actor := fmt.Sprintf("user:%s", userID.String())
	return s.authzSvc.Authorize(c.Request.Context(), actor, orgID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
}
