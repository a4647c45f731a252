package authorization

import "context"

const (
	ObjectScheduleConfig = "schedule_config"
	ObjectOrder          = "order"
	ObjectSchedule       = "schedule"

	ActionConfigRead   = "read"
	ActionConfigWrite  = "write"
	ActionOrderPlace   = "place"
	ActionOrderUpdate  = "update"
	ActionOrderCancel  = "cancel"
	ActionScheduleRead = "read"
)

type Service interface {
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}
