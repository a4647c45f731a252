package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/athenajq/lunchline/internal/authorization"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type putScheduleConfigRequest struct {
	OrderRule scheduledomain.OrderScheduleConfig `json:"order_rule"`
	LunchRule scheduledomain.LunchScheduleConfig `json:"lunch_rule"`
}

func (s *Server) GetScheduleConfig(c *gin.Context) {
	orgID, _, err := s.authorizeOrgAction(c, authorization.ObjectScheduleConfig, authorization.ActionConfigRead)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.cfgSvc.Get(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) PutScheduleConfig(c *gin.Context) {
	orgID, _, err := s.authorizeOrgAction(c, authorization.ObjectScheduleConfig, authorization.ActionConfigWrite)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req putScheduleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cfgSvc.Upsert(c.Request.Context(), orgID, scheduleconfigdomain.UpsertRequest{
		OrderRule: req.OrderRule,
		LunchRule: req.LunchRule,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
