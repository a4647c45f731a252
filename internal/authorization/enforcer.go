package authorization

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// rolePolicies maps each membership role to its allowed object/action pairs.
// The organization scope comes from the membership lookup, not the policy.
var rolePolicies = [][3]string{
	{"OWNER", ObjectScheduleConfig, ActionConfigRead},
	{"OWNER", ObjectScheduleConfig, ActionConfigWrite},
	{"OWNER", ObjectOrder, ActionOrderPlace},
	{"OWNER", ObjectOrder, ActionOrderUpdate},
	{"OWNER", ObjectOrder, ActionOrderCancel},
	{"OWNER", ObjectSchedule, ActionScheduleRead},
	{"ADMIN", ObjectScheduleConfig, ActionConfigRead},
	{"ADMIN", ObjectScheduleConfig, ActionConfigWrite},
	{"ADMIN", ObjectOrder, ActionOrderPlace},
	{"ADMIN", ObjectOrder, ActionOrderUpdate},
	{"ADMIN", ObjectOrder, ActionOrderCancel},
	{"ADMIN", ObjectSchedule, ActionScheduleRead},
	{"MEMBER", ObjectOrder, ActionOrderPlace},
	{"MEMBER", ObjectOrder, ActionOrderUpdate},
	{"MEMBER", ObjectOrder, ActionOrderCancel},
	{"MEMBER", ObjectSchedule, ActionScheduleRead},
}

// NewEnforcer builds a casbin enforcer backed by the casbin_rule table and
// seeds the role capability matrix.
func NewEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	for _, p := range rolePolicies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}
