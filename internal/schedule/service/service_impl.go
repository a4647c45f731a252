package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/clock"
	orderdomain "github.com/athenajq/lunchline/internal/order/domain"
	organizationdomain "github.com/athenajq/lunchline/internal/organization/domain"
	"github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
	clk clock.Clock

	cfgSvc    scheduleconfigdomain.Service
	orgRepo   organizationdomain.Repository
	orderRepo orderdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	CfgSvc    scheduleconfigdomain.Service
	OrgRepo   organizationdomain.Repository
	OrderRepo orderdomain.Repository
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("schedule.service"),
		clk:       p.Clock,
		cfgSvc:    p.CfgSvc,
		orgRepo:   p.OrgRepo,
		orderRepo: p.OrderRepo,
	}
}

func (s *Service) View(ctx context.Context, orgID, userID snowflake.ID, from, to domain.Date) (*domain.ScheduleView, error) {
	if orgID == 0 || userID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if from.After(to) {
		return nil, domain.ErrInvalidRange
	}

	cfg, err := s.cfgSvc.ActiveForOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	member, err := s.orgRepo.FindMember(ctx, s.db, orgID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotMember
	}

	lunch, err := domain.ResolveForUser(cfg.Lunch, member.AttributeValues())
	if err != nil {
		return nil, err
	}

	// Resolve from the canonical anchor so group boundaries line up with
	// the ones order placement claims, then trim groups outside the window.
	anchor := domain.PartitionAnchor(cfg.Order, from)
	open, err := domain.ResolveOpenDates(cfg.Order, anchor, to)
	if err != nil {
		return nil, err
	}
	served := domain.FilterServed(open, lunch)
	groups := domain.Partition(served, cfg.Order.ScheduleType, cfg.Order.Grouping)

	active, err := s.orderRepo.FindActiveByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	records := make([]domain.OrderRecord, 0, len(active))
	owners := make(map[string]snowflake.ID, len(active))
	for i := range active {
		record, err := active[i].ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		owners[record.ID] = active[i].UserID
	}

	reconciled := domain.Reconcile(records, groups, cfg.Order, lunch, s.clk.Now())

	views := make([]domain.GroupView, 0, len(reconciled))
	for _, g := range reconciled {
		if g.Group.Last().Before(from) {
			continue
		}
		view := domain.GroupView{
			Ordinal:           g.Group.Ordinal,
			Dates:             g.Group.Dates,
			AvailabilityIndex: g.AvailabilityIndex,
			Editable:          g.Editable,
			Claimed:           g.Claimed(),
			ClosesAt:          g.ClosesAt,
		}
		for _, id := range g.OrderIDs {
			if owners[id] == userID {
				view.OwnOrderID = id
				break
			}
		}
		views = append(views, view)
	}

	timezone := lunch.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	return &domain.ScheduleView{
		OrgID:    orgID.String(),
		UserID:   userID.String(),
		Timezone: timezone,
		From:     from,
		To:       to,
		Groups:   views,
	}, nil
}
