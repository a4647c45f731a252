package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/athenajq/lunchline/internal/authorization"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
)

// GetSchedule returns the caller's reconciled schedule for a date window.
func (s *Server) GetSchedule(c *gin.Context) {
	orgID, userID, err := s.authorizeOrgAction(c, authorization.ObjectSchedule, authorization.ActionScheduleRead)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	from, err := parseDateParam(c, "from")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	to, err := parseDateParam(c, "to")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.scheduleSvc.View(c.Request.Context(), orgID, userID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func parseDateParam(c *gin.Context, name string) (scheduledomain.Date, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return scheduledomain.Date{}, newValidationError(name, "missing_date", name+" is required")
	}
	date, err := scheduledomain.ParseDate(raw)
	if err != nil {
		return scheduledomain.Date{}, newValidationError(name, "invalid_date", name+" must be an ISO date")
	}
	return date, nil
}
