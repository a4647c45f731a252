package events

// Event types emitted by the order and schedule pipelines.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderUpdated   = "order.updated"
	EventOrderCancelled = "order.cancelled"
	EventOrderArchived  = "order.archived"
	EventConfigReplaced = "schedule_config.replaced"
)

// OrderEventPayload is the canonical payload for order lifecycle events.
type OrderEventPayload struct {
	OrderID   string   `json:"order_id"`
	OrgID     string   `json:"org_id"`
	UserID    string   `json:"user_id"`
	Dates     []string `json:"dates,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func (p OrderEventPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"order_id": p.OrderID,
		"org_id":   p.OrgID,
		"user_id":  p.UserID,
	}
	if len(p.Dates) > 0 {
		m["dates"] = p.Dates
	}
	if p.RequestID != "" {
		m["request_id"] = p.RequestID
	}
	return m
}

// ConfigEventPayload is the payload for schedule config replacement events.
type ConfigEventPayload struct {
	ConfigID  string `json:"config_id"`
	OrgID     string `json:"org_id"`
	RequestID string `json:"request_id,omitempty"`
}

func (p ConfigEventPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"config_id": p.ConfigID,
		"org_id":    p.OrgID,
	}
	if p.RequestID != "" {
		m["request_id"] = p.RequestID
	}
	return m
}
