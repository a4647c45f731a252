package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/cache"
	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/events"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	"github.com/athenajq/lunchline/internal/scheduleconfig/domain"
	"github.com/athenajq/lunchline/internal/scheduleconfig/repository"
)

func setupConfigTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE schedule_configs (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			order_rule TEXT NOT NULL,
			lunch_rule TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE lunch_events (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (org_id, dedupe_key)
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newConfigTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.Fixed{Instant: time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)},
		Repo:    repository.Provide(),
		Decoded: cache.NewScheduleConfigCache(),
		Outbox:  events.NewOutbox(db, node),
	})
	return svc.(*Service)
}

func validUpsertRequest() domain.UpsertRequest {
	weekdays := scheduledomain.Weekdays{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}
	return domain.UpsertRequest{
		OrderRule: scheduledomain.OrderScheduleConfig{
			ScheduleType: scheduledomain.ScheduleTypeDaily,
			Recurrence:   scheduledomain.RecurrenceRule{Weekdays: weekdays},
			Cutoff:       scheduledomain.CutoffRule{TimeOfDay: "10:00", Timezone: "UTC"},
		},
		LunchRule: scheduledomain.LunchScheduleConfig{
			Timezone: "UTC",
			Weekdays: weekdays,
		},
	}
}

func TestUpsertAndActiveForOrg(t *testing.T) {
	db := setupConfigTestDB(t)
	svc := newConfigTestService(t, db)

	resp, err := svc.Upsert(context.Background(), 1, validUpsertRequest())
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected config id")
	}

	decoded, err := svc.ActiveForOrg(context.Background(), 1)
	if err != nil {
		t.Fatalf("active for org: %v", err)
	}
	if decoded.Order.ScheduleType != scheduledomain.ScheduleTypeDaily {
		t.Fatalf("unexpected schedule type: %s", decoded.Order.ScheduleType)
	}
}

func TestUpsertReplacesActiveConfig(t *testing.T) {
	db := setupConfigTestDB(t)
	svc := newConfigTestService(t, db)

	if _, err := svc.Upsert(context.Background(), 1, validUpsertRequest()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	replacement := validUpsertRequest()
	replacement.OrderRule.Cutoff.TimeOfDay = "09:00"
	if _, err := svc.Upsert(context.Background(), 1, replacement); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var activeCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM schedule_configs WHERE org_id = 1 AND active = true`).Scan(&activeCount).Error; err != nil {
		t.Fatalf("count active: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected 1 active config, got %d", activeCount)
	}

	decoded, err := svc.ActiveForOrg(context.Background(), 1)
	if err != nil {
		t.Fatalf("active for org: %v", err)
	}
	if decoded.Order.Cutoff.TimeOfDay != "09:00" {
		t.Fatalf("cache not invalidated, got cutoff %s", decoded.Order.Cutoff.TimeOfDay)
	}
}

func TestUpsertPublishesReplacedEvent(t *testing.T) {
	db := setupConfigTestDB(t)
	svc := newConfigTestService(t, db)

	resp, err := svc.Upsert(context.Background(), 1, validUpsertRequest())
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM lunch_events WHERE event_type = ? AND dedupe_key = ?`,
		"schedule_config.replaced", "config:"+resp.ID).Scan(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 replaced event, got %d", count)
	}
}

func TestUpsertRejectsMalformedCutoff(t *testing.T) {
	db := setupConfigTestDB(t)
	svc := newConfigTestService(t, db)

	req := validUpsertRequest()
	req.OrderRule.Cutoff.TimeOfDay = "25:99"
	_, err := svc.Upsert(context.Background(), 1, req)
	if !errors.Is(err, scheduledomain.ErrMalformedConfig) {
		t.Fatalf("expected malformed config, got %v", err)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM schedule_configs`).Scan(&count).Error; err != nil {
		t.Fatalf("count configs: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid config was stored")
	}
}

func TestActiveForOrgMissing(t *testing.T) {
	db := setupConfigTestDB(t)
	svc := newConfigTestService(t, db)

	_, err := svc.ActiveForOrg(context.Background(), 9)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
