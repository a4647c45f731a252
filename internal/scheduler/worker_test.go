package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/events"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type stubConfigService struct {
	configured map[snowflake.ID]scheduleconfigdomain.DecodedConfig
}

func (s stubConfigService) ActiveForOrg(ctx context.Context, orgID snowflake.ID) (*scheduleconfigdomain.DecodedConfig, error) {
	cfg, ok := s.configured[orgID]
	if !ok {
		return nil, scheduleconfigdomain.ErrNotFound
	}
	cfg.OrgID = orgID
	return &cfg, nil
}

func (s stubConfigService) Get(ctx context.Context, orgID snowflake.ID) (*scheduleconfigdomain.Response, error) {
	return nil, scheduleconfigdomain.ErrNotFound
}

func (s stubConfigService) Upsert(ctx context.Context, orgID snowflake.ID, req scheduleconfigdomain.UpsertRequest) (*scheduleconfigdomain.Response, error) {
	return nil, scheduleconfigdomain.ErrNotFound
}

func sweepTestConfig() scheduleconfigdomain.DecodedConfig {
	return scheduleconfigdomain.DecodedConfig{
		ID: 1,
		Order: scheduledomain.OrderScheduleConfig{
			ScheduleType: scheduledomain.ScheduleTypeDaily,
			Recurrence: scheduledomain.RecurrenceRule{
				Weekdays: scheduledomain.Weekdays{
					time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
				},
			},
			Cutoff: scheduledomain.CutoffRule{TimeOfDay: "10:00", Timezone: "UTC"},
		},
		Lunch: scheduledomain.LunchScheduleConfig{Timezone: "UTC"},
	}
}

func setupSweepTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			idempotency_key TEXT NOT NULL UNIQUE,
			dates TEXT NOT NULL,
			selection TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'ACTIVE',
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

func insertSweepOrder(t *testing.T, db *gorm.DB, id, orgID int64, dates []scheduledomain.Date) {
	t.Helper()
	raw, err := json.Marshal(dates)
	if err != nil {
		t.Fatalf("marshal dates: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO orders (id, org_id, user_id, idempotency_key, dates, selection, status, created_at, updated_at)
		 VALUES (?, ?, 10, ?, ?, '{}', 'ACTIVE', ?, ?)`,
		id, orgID, fmt.Sprintf("key-%d", id), string(raw), time.Now().UTC(), time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}
}

func newSweepWorker(t *testing.T, db *gorm.DB, now time.Time, configured map[snowflake.ID]scheduleconfigdomain.DecodedConfig) *Worker {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewWorker(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clock.Fixed{Instant: now},
		CfgSvc: stubConfigService{configured: configured},
		Outbox: events.NewOutbox(db, node),
	})
}

func orderStatus(t *testing.T, db *gorm.DB, id int64) string {
	t.Helper()
	var status string
	if err := db.Raw(`SELECT status FROM orders WHERE id = ?`, id).Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	return status
}

func TestSweepArchivesSpentOrders(t *testing.T) {
	db := setupSweepTestDB(t)
	insertSweepOrder(t, db, 100, 1, []scheduledomain.Date{
		scheduledomain.NewDate(2026, time.September, 8),
		scheduledomain.NewDate(2026, time.September, 9),
	})
	insertSweepOrder(t, db, 101, 1, []scheduledomain.Date{
		scheduledomain.NewDate(2026, time.September, 11),
	})
	insertSweepOrder(t, db, 102, 1, []scheduledomain.Date{
		scheduledomain.NewDate(2026, time.September, 14),
	})

	// Cutoff for Sep 10 passed at 10:00, so the boundary is Sep 11.
	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)
	worker := newSweepWorker(t, db, now, map[snowflake.ID]scheduleconfigdomain.DecodedConfig{
		1: sweepTestConfig(),
	})

	archived, err := worker.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if archived != 1 {
		t.Fatalf("expected 1 archived, got %d", archived)
	}

	if got := orderStatus(t, db, 100); got != "ARCHIVED" {
		t.Fatalf("order 100: expected ARCHIVED, got %s", got)
	}
	if got := orderStatus(t, db, 101); got != "ACTIVE" {
		t.Fatalf("order 101: expected ACTIVE, got %s", got)
	}
	if got := orderStatus(t, db, 102); got != "ACTIVE" {
		t.Fatalf("order 102: expected ACTIVE, got %s", got)
	}

	var eventCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM lunch_events WHERE event_type = ?`, events.EventOrderArchived).Scan(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected 1 archived event, got %d", eventCount)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	db := setupSweepTestDB(t)
	insertSweepOrder(t, db, 100, 1, []scheduledomain.Date{
		scheduledomain.NewDate(2026, time.September, 8),
	})

	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)
	worker := newSweepWorker(t, db, now, map[snowflake.ID]scheduleconfigdomain.DecodedConfig{
		1: sweepTestConfig(),
	})

	if _, err := worker.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	archived, err := worker.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if archived != 0 {
		t.Fatalf("expected nothing to archive, got %d", archived)
	}
}

func TestSweepSkipsOrgWithoutConfig(t *testing.T) {
	db := setupSweepTestDB(t)
	insertSweepOrder(t, db, 100, 7, []scheduledomain.Date{
		scheduledomain.NewDate(2026, time.September, 8),
	})

	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)
	worker := newSweepWorker(t, db, now, nil)

	archived, err := worker.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if archived != 0 {
		t.Fatalf("expected nothing archived, got %d", archived)
	}
	if got := orderStatus(t, db, 100); got != "ACTIVE" {
		t.Fatalf("expected order untouched, got %s", got)
	}
}
