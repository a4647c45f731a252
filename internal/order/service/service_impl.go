package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/events"
	obscontext "github.com/athenajq/lunchline/internal/observability/context"
	"github.com/athenajq/lunchline/internal/order/domain"
	organizationdomain "github.com/athenajq/lunchline/internal/organization/domain"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clk   clock.Clock

	repo    domain.Repository
	cfgSvc  scheduleconfigdomain.Service
	orgRepo organizationdomain.Repository
	outbox  *events.Outbox
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	CfgSvc  scheduleconfigdomain.Service
	OrgRepo organizationdomain.Repository
	Outbox  *events.Outbox
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("order.service"),
		genID:   p.GenID,
		clk:     p.Clock,
		repo:    p.Repo,
		cfgSvc:  p.CfgSvc,
		orgRepo: p.OrgRepo,
		outbox:  p.Outbox,
	}
}

func (s *Service) Place(ctx context.Context, orgID, userID snowflake.ID, req domain.PlaceRequest) (*domain.Response, error) {
	if orgID == 0 || userID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, domain.ErrMissingIdempotencyKey
	}
	if _, err := uuid.Parse(key); err != nil {
		return nil, domain.ErrMissingIdempotencyKey
	}

	// Idempotent replay returns the original order untouched.
	if existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, orgID, key); err != nil {
		return nil, err
	} else if existing != nil {
		return toResponse(existing)
	}

	cfg, lunch, err := s.resolveSchedule(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	group, err := s.gateGroup(ctx, cfg, lunch, req.Dates, "")
	if err != nil {
		return nil, err
	}

	dates, err := domain.EncodeDates(group.Dates)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	order := &domain.Order{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		UserID:         userID,
		IdempotencyKey: key,
		Dates:          dates,
		Selection:      datatypes.JSONMap(req.Selection),
		Status:         domain.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if order.Selection == nil {
		order.Selection = datatypes.JSONMap{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, order); err != nil {
			return err
		}
		return s.publishTx(ctx, tx, events.EventOrderPlaced, order, "placed:"+key)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", userID.String()),
		zap.String("order_id", order.ID.String()),
	)
	return toResponse(order)
}

func (s *Service) Update(ctx context.Context, orgID, userID, orderID snowflake.ID, req domain.UpdateRequest) (*domain.Response, error) {
	order, err := s.ownedActiveOrder(ctx, orgID, userID, orderID)
	if err != nil {
		return nil, err
	}

	cfg, lunch, err := s.resolveSchedule(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	current, err := order.DateList()
	if err != nil {
		return nil, err
	}
	if !s.editable(cfg, lunch, current) {
		return nil, domain.ErrGroupClosed
	}

	if len(req.Dates) > 0 {
		group, err := s.gateGroup(ctx, cfg, lunch, req.Dates, order.ID.String())
		if err != nil {
			return nil, err
		}
		dates, err := domain.EncodeDates(group.Dates)
		if err != nil {
			return nil, err
		}
		order.Dates = dates
	}
	if req.Selection != nil {
		order.Selection = datatypes.JSONMap(req.Selection)
	}
	order.UpdatedAt = s.clk.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}
		return s.publishTx(ctx, tx, events.EventOrderUpdated, order, "")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order updated",
		zap.String("org_id", orgID.String()),
		zap.String("order_id", order.ID.String()),
	)
	return toResponse(order)
}

func (s *Service) Cancel(ctx context.Context, orgID, userID, orderID snowflake.ID) error {
	order, err := s.ownedActiveOrder(ctx, orgID, userID, orderID)
	if err != nil {
		return err
	}

	cfg, lunch, err := s.resolveSchedule(ctx, orgID, userID)
	if err != nil {
		return err
	}
	current, err := order.DateList()
	if err != nil {
		return err
	}
	if !s.editable(cfg, lunch, current) {
		return domain.ErrGroupClosed
	}

	order.Status = domain.StatusCancelled
	order.UpdatedAt = s.clk.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}
		return s.publishTx(ctx, tx, events.EventOrderCancelled, order, "")
	})
	if err != nil {
		return err
	}

	s.log.Info("order cancelled",
		zap.String("org_id", orgID.String()),
		zap.String("order_id", order.ID.String()),
	)
	return nil
}

func (s *Service) ownedActiveOrder(ctx context.Context, orgID, userID, orderID snowflake.ID) (*domain.Order, error) {
	if orgID == 0 || userID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.OrgID != orgID {
		return nil, domain.ErrNotFound
	}
	if order.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	if order.Status != domain.StatusActive {
		return nil, domain.ErrNotActive
	}
	return order, nil
}

func (s *Service) resolveSchedule(ctx context.Context, orgID, userID snowflake.ID) (*scheduleconfigdomain.DecodedConfig, scheduledomain.LunchScheduleConfig, error) {
	cfg, err := s.cfgSvc.ActiveForOrg(ctx, orgID)
	if err != nil {
		return nil, scheduledomain.LunchScheduleConfig{}, err
	}
	member, err := s.orgRepo.FindMember(ctx, s.db, orgID, userID)
	if err != nil {
		return nil, scheduledomain.LunchScheduleConfig{}, err
	}
	if member == nil {
		return nil, scheduledomain.LunchScheduleConfig{}, domain.ErrInvalidOrganization
	}
	lunch, err := scheduledomain.ResolveForUser(cfg.Lunch, member.AttributeValues())
	if err != nil {
		return nil, scheduledomain.LunchScheduleConfig{}, err
	}
	return cfg, lunch, nil
}

// gateGroup checks that the requested dates are exactly the served open days
// of one canonically anchored schedule group, and that the group is open and
// not claimed by anyone else. allowOwn excludes the caller's own order from
// the claim check when updating.
func (s *Service) gateGroup(ctx context.Context, cfg *scheduleconfigdomain.DecodedConfig, lunch scheduledomain.LunchScheduleConfig, dates []scheduledomain.Date, allowOwn string) (*scheduledomain.ScheduleGroup, error) {
	if len(dates) == 0 {
		return nil, domain.ErrInvalidDates
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			return nil, domain.ErrInvalidDates
		}
	}

	anchor := scheduledomain.PartitionAnchor(cfg.Order, dates[0])
	open, err := scheduledomain.ResolveOpenDates(cfg.Order, anchor, dates[len(dates)-1])
	if err != nil {
		return nil, err
	}
	served := scheduledomain.FilterServed(open, lunch)
	groups := scheduledomain.Partition(served, cfg.Order.ScheduleType, cfg.Order.Grouping)

	idx := -1
	for i := range groups {
		if containsDate(groups[i].Dates, dates[0]) {
			idx = i
			break
		}
	}
	if idx < 0 || !sameDates(groups[idx].Dates, dates) {
		return nil, domain.ErrInvalidDates
	}

	active, err := s.repo.FindActiveByOrg(ctx, s.db, cfg.OrgID)
	if err != nil {
		return nil, err
	}
	records := make([]scheduledomain.OrderRecord, 0, len(active))
	for i := range active {
		if active[i].ID.String() == allowOwn {
			continue
		}
		record, err := active[i].ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	reconciled := scheduledomain.Reconcile(records, groups, cfg.Order, lunch, s.clk.Now())
	group := reconciled[idx]
	if group.Claimed() {
		return nil, domain.ErrGroupClaimed
	}
	if !group.Editable {
		return nil, domain.ErrGroupClosed
	}
	return &group.Group, nil
}

func containsDate(dates []scheduledomain.Date, d scheduledomain.Date) bool {
	for _, candidate := range dates {
		if candidate == d {
			return true
		}
	}
	return false
}

func (s *Service) editable(cfg *scheduleconfigdomain.DecodedConfig, lunch scheduledomain.LunchScheduleConfig, dates []scheduledomain.Date) bool {
	group := scheduledomain.ScheduleGroup{Dates: dates}
	return scheduledomain.IsBeforeCutoff(group, cfg.Order, lunch, s.clk.Now())
}

func (s *Service) publishTx(ctx context.Context, tx *gorm.DB, eventType string, order *domain.Order, dedupeKey string) error {
	dateStrings := make([]string, 0)
	if dates, err := order.DateList(); err == nil {
		for _, d := range dates {
			dateStrings = append(dateStrings, d.String())
		}
	}
	payload := events.OrderEventPayload{
		OrderID:   order.ID.String(),
		OrgID:     order.OrgID.String(),
		UserID:    order.UserID.String(),
		Dates:     dateStrings,
		RequestID: obscontext.RequestIDFromContext(ctx),
	}
	return s.outbox.PublishTx(ctx, tx, events.Event{
		OrgID:     order.OrgID,
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: dedupeKey,
	})
}

func toResponse(order *domain.Order) (*domain.Response, error) {
	dates, err := order.DateList()
	if err != nil {
		return nil, err
	}
	return &domain.Response{
		ID:        order.ID.String(),
		OrgID:     order.OrgID.String(),
		UserID:    order.UserID.String(),
		Dates:     dates,
		Selection: map[string]interface{}(order.Selection),
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}, nil
}

func sameDates(a, b []scheduledomain.Date) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
