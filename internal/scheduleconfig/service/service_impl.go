package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/cache"
	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/events"
	obscontext "github.com/athenajq/lunchline/internal/observability/context"
	"github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clk   clock.Clock

	repo    domain.Repository
	decoded cache.Cache[snowflake.ID, domain.DecodedConfig]
	outbox  *events.Outbox
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Decoded cache.Cache[snowflake.ID, domain.DecodedConfig]
	Outbox  *events.Outbox
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("scheduleconfig.service"),
		genID:   p.GenID,
		clk:     p.Clock,
		repo:    p.Repo,
		decoded: p.Decoded,
		outbox:  p.Outbox,
	}
}

func (s *Service) ActiveForOrg(ctx context.Context, orgID snowflake.ID) (*domain.DecodedConfig, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if cached, ok := s.decoded.Get(orgID); ok {
		return &cached, nil
	}

	row, err := s.repo.FindActive(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	decoded, err := row.Decode()
	if err != nil {
		return nil, err
	}

	s.decoded.Set(orgID, decoded, cache.ScheduleConfigCacheTTL)
	return &decoded, nil
}

func (s *Service) Get(ctx context.Context, orgID snowflake.ID) (*domain.Response, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	row, err := s.repo.FindActive(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	decoded, err := row.Decode()
	if err != nil {
		return nil, err
	}
	return &domain.Response{
		ID:        row.ID.String(),
		OrgID:     row.OrgID.String(),
		OrderRule: decoded.Order,
		LunchRule: decoded.Lunch,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *Service) Upsert(ctx context.Context, orgID snowflake.ID, req domain.UpsertRequest) (*domain.Response, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	orderRule, lunchRule, err := domain.MarshalRules(req)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	row := &domain.ScheduleConfig{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		OrderRule: orderRule,
		LunchRule: lunchRule,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Decode round-trips through the stored representation so validation
	// sees exactly what later reads will see.
	decoded, err := row.Decode()
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Replace(ctx, tx, row); err != nil {
			return err
		}
		payload := events.ConfigEventPayload{
			ConfigID:  row.ID.String(),
			OrgID:     row.OrgID.String(),
			RequestID: obscontext.RequestIDFromContext(ctx),
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID:     row.OrgID,
			Type:      events.EventConfigReplaced,
			Payload:   payload.ToMap(),
			DedupeKey: "config:" + row.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.decoded.Delete(orgID)

	s.log.Info("schedule config replaced",
		zap.String("org_id", orgID.String()),
		zap.String("config_id", row.ID.String()),
	)

	return &domain.Response{
		ID:        row.ID.String(),
		OrgID:     row.OrgID.String(),
		OrderRule: decoded.Order,
		LunchRule: decoded.Lunch,
		CreatedAt: row.CreatedAt,
	}, nil
}
