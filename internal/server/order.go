package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/athenajq/lunchline/internal/authorization"
	orderdomain "github.com/athenajq/lunchline/internal/order/domain"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
)

type placeOrderRequest struct {
	IdempotencyKey string                 `json:"idempotency_key"`
	Dates          []string               `json:"dates"`
	Selection      map[string]interface{} `json:"selection"`
}

type updateOrderRequest struct {
	Dates     []string               `json:"dates"`
	Selection map[string]interface{} `json:"selection"`
}

func (s *Server) PlaceOrder(c *gin.Context) {
	orgID, userID, err := s.authorizeOrgAction(c, authorization.ObjectOrder, authorization.ActionOrderPlace)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dates, err := parseDates(req.Dates)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.Place(c.Request.Context(), orgID, userID, orderdomain.PlaceRequest{
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
		Dates:          dates,
		Selection:      req.Selection,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateOrder(c *gin.Context) {
	orgID, userID, err := s.authorizeOrgAction(c, authorization.ObjectOrder, authorization.ActionOrderUpdate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dates, err := parseDates(req.Dates)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.Update(c.Request.Context(), orgID, userID, orderID, orderdomain.UpdateRequest{
		Dates:     dates,
		Selection: req.Selection,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CancelOrder(c *gin.Context) {
	orgID, userID, err := s.authorizeOrgAction(c, authorization.ObjectOrder, authorization.ActionOrderCancel)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.orderSvc.Cancel(c.Request.Context(), orgID, userID, orderID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func orderIDParam(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		return 0, newValidationError("id", "missing_id", "order id is required")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError("id", "invalid_id", "order id is malformed")
	}
	return id, nil
}

func parseDates(raw []string) ([]scheduledomain.Date, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dates := make([]scheduledomain.Date, 0, len(raw))
	for _, value := range raw {
		date, err := scheduledomain.ParseDate(strings.TrimSpace(value))
		if err != nil {
			return nil, newValidationError("dates", "invalid_date", "dates must be ISO dates")
		}
		dates = append(dates, date)
	}
	return dates, nil
}
