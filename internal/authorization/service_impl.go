package authorization

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.Enforcer
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.Enforcer
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

// Authorize checks whether the actor may perform action on object within the
// organization. Actors are "system" or "user:<id>"; user capability comes
// from the membership role in that organization.
func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	if strings.TrimSpace(object) == "" {
		return ErrInvalidObject
	}
	if strings.TrimSpace(action) == "" {
		return ErrInvalidAction
	}
	org, err := strconv.ParseInt(strings.TrimSpace(orgID), 10, 64)
	if err != nil || org == 0 {
		return ErrInvalidOrganization
	}

	if actor == "system" {
		return nil
	}

	rawUser, ok := strings.CutPrefix(actor, "user:")
	if !ok {
		return ErrInvalidActor
	}
	userID, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil || userID == 0 {
		return ErrInvalidActor
	}

	role, err := s.memberRole(ctx, org, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrForbidden
	}

	allowed, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("actor", actor),
			zap.String("org_id", orgID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) memberRole(ctx context.Context, orgID, userID int64) (string, error) {
	var role string
	err := s.db.WithContext(ctx).
		Raw(`SELECT role FROM organization_members WHERE org_id = ? AND user_id = ?`, orgID, userID).
		Scan(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}
