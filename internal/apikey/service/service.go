package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/apikey/domain"
	"github.com/athenajq/lunchline/internal/clock"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clk   clock.Clock
	repo  domain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		genID: p.GenID,
		clk:   p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, orgID snowflake.ID, req domain.CreateRequest) (*domain.Response, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	plain, hash, err := domain.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	key := &domain.APIKey{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		KeyHash:   hash,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: s.clk.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, key); err != nil {
		return nil, err
	}

	s.log.Info("api key created",
		zap.String("org_id", orgID.String()),
		zap.String("key_id", key.ID.String()),
	)

	resp := toResponse(key)
	resp.Key = plain
	return &resp, nil
}

func (s *Service) List(ctx context.Context, orgID snowflake.ID) ([]domain.Response, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	keys, err := s.repo.List(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Response, 0, len(keys))
	for i := range keys {
		out = append(out, toResponse(&keys[i]))
	}
	return out, nil
}

func (s *Service) Revoke(ctx context.Context, orgID, keyID snowflake.ID) error {
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	key, err := s.repo.FindByID(ctx, s.db, orgID, keyID)
	if err != nil {
		return err
	}
	if key == nil {
		return domain.ErrNotFound
	}
	if !key.IsActive {
		return nil
	}
	key.IsActive = false
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		return err
	}

	s.log.Info("api key revoked",
		zap.String("org_id", orgID.String()),
		zap.String("key_id", keyID.String()),
	)
	return nil
}

func toResponse(key *domain.APIKey) domain.Response {
	return domain.Response{
		ID:        key.ID.String(),
		Name:      key.Name,
		IsActive:  key.IsActive,
		ExpiresAt: key.ExpiresAt,
		CreatedAt: key.CreatedAt,
	}
}
