package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apikeydomain "github.com/athenajq/lunchline/internal/apikey/domain"
	apikeyrepository "github.com/athenajq/lunchline/internal/apikey/repository"
	apikeyservice "github.com/athenajq/lunchline/internal/apikey/service"
	"github.com/athenajq/lunchline/internal/authorization"
	"github.com/athenajq/lunchline/internal/cache"
	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/config"
	"github.com/athenajq/lunchline/internal/events"
	orderrepository "github.com/athenajq/lunchline/internal/order/repository"
	orderservice "github.com/athenajq/lunchline/internal/order/service"
	organizationrepository "github.com/athenajq/lunchline/internal/organization/repository"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleservice "github.com/athenajq/lunchline/internal/schedule/service"
	scheduleconfigrepository "github.com/athenajq/lunchline/internal/scheduleconfig/repository"
	scheduleconfigservice "github.com/athenajq/lunchline/internal/scheduleconfig/service"
)

const (
	testAdminKey  = "llk_test_admin_key"
	testAdminUser = "10"
	testMember    = "11"
	testOtherUser = "12"
)

func setupTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE organizations (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE organization_members (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			role TEXT NOT NULL DEFAULT 'MEMBER',
			attributes TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE schedule_configs (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			order_rule TEXT NOT NULL,
			lunch_rule TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
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
		`CREATE TABLE api_keys (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			key_hash TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
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

	seed := []string{
		`INSERT INTO organizations (id, name, slug, created_at, updated_at)
		 VALUES (1, 'Test Org', 'test-org', '2026-01-01', '2026-01-01')`,
		`INSERT INTO organization_members (id, org_id, user_id, role, attributes, created_at)
		 VALUES (10, 1, 10, 'ADMIN', '{}', '2026-01-01')`,
		`INSERT INTO organization_members (id, org_id, user_id, role, attributes, created_at)
		 VALUES (11, 1, 11, 'MEMBER', '{}', '2026-01-01')`,
		`INSERT INTO organization_members (id, org_id, user_id, role, attributes, created_at)
		 VALUES (12, 1, 12, 'MEMBER', '{}', '2026-01-01')`,
		fmt.Sprintf(`INSERT INTO api_keys (id, org_id, name, key_hash, is_active, created_at)
		 VALUES (100, 1, 'test', '%s', TRUE, '2026-01-01')`, apikeydomain.HashAPIKey(testAdminKey)),
	}
	for _, stmt := range seed {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()
	clk := clock.Fixed{Instant: time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)}

	outbox := events.NewOutbox(db, node)
	cfgSvc := scheduleconfigservice.NewService(scheduleconfigservice.ServiceParam{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    scheduleconfigrepository.Provide(),
		Decoded: cache.NewScheduleConfigCache(),
		Outbox:  outbox,
	})
	orgRepo := organizationrepository.Provide()
	orderRepo := orderrepository.Provide()
	orderSvc := orderservice.NewService(orderservice.ServiceParam{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    orderRepo,
		CfgSvc:  cfgSvc,
		OrgRepo: orgRepo,
		Outbox:  outbox,
	})
	scheduleSvc := scheduleservice.NewService(scheduleservice.ServiceParam{
		DB:        db,
		Log:       log,
		Clock:     clk,
		CfgSvc:    cfgSvc,
		OrgRepo:   orgRepo,
		OrderRepo: orderRepo,
	})
	apikeySvc := apikeyservice.New(apikeyservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  apikeyrepository.Provide(),
	})
	enforcer, err := authorization.NewEnforcer(db)
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	authzSvc := authorization.NewService(authorization.ServiceParam{
		DB:       db,
		Log:      log,
		Enforcer: enforcer,
	})

	srv := NewServer(Param{
		Config:      config.Config{Environment: "test", HTTPAddr: ":0"},
		DB:          db,
		Log:         log,
		Clock:       clk,
		ScheduleSvc: scheduleSvc,
		OrderSvc:    orderSvc,
		CfgSvc:      cfgSvc,
		APIKeySvc:   apikeySvc,
		AuthzSvc:    authzSvc,
	})
	return srv, db
}

func doRequest(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(HeaderUser, user)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func putTestConfig(t *testing.T, srv *Server) {
	t.Helper()
	body := putScheduleConfigRequest{
		OrderRule: scheduledomain.OrderScheduleConfig{
			ScheduleType: scheduledomain.ScheduleTypeDaily,
			Recurrence: scheduledomain.RecurrenceRule{
				Weekdays: scheduledomain.Weekdays{
					time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
				},
			},
			Cutoff: scheduledomain.CutoffRule{TimeOfDay: "10:00", Timezone: "UTC"},
		},
		LunchRule: scheduledomain.LunchScheduleConfig{
			Timezone: "UTC",
			Weekdays: scheduledomain.Weekdays{
				time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
			},
		},
	}
	rec := doRequest(t, srv, http.MethodPut, "/api/admin/schedule-config", testAdminUser, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("put config: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyRequiredRejectsMissingKey(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyRequiredRejectsOrgOverride(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	req.Header.Set(HeaderOrg, "2")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetScheduleReturnsGroups(t *testing.T) {
	srv, _ := setupTestServer(t)
	putTestConfig(t, srv)

	rec := doRequest(t, srv, http.MethodGet, "/api/schedule?from=2026-09-01&to=2026-09-04", testMember, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", rec.Code, rec.Body.String())
	}

	var view scheduledomain.ScheduleView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(view.Groups))
	}
	if view.Groups[0].AvailabilityIndex != 0 {
		t.Fatalf("expected first group open, got %d", view.Groups[0].AvailabilityIndex)
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)
	putTestConfig(t, srv)

	body := placeOrderRequest{
		IdempotencyKey: "b3e0f9d2-4c6a-4c58-9f30-2f7a1d8e5b4c",
		Dates:          []string{"2026-09-02"},
		Selection:      map[string]interface{}{"meal": "veggie"},
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/orders", testMember, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", rec.Code, rec.Body.String())
	}

	// The group is now claimed; another member placing on it conflicts.
	conflict := placeOrderRequest{
		IdempotencyKey: "c4f1a0e3-5d7b-4d69-8a41-3a8b2e9f6c5d",
		Dates:          []string{"2026-09-02"},
	}
	rec = doRequest(t, srv, http.MethodPost, "/api/orders", testOtherUser, conflict)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestPutScheduleConfigForbiddenForMember(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := putScheduleConfigRequest{
		OrderRule: scheduledomain.OrderScheduleConfig{
			ScheduleType: scheduledomain.ScheduleTypeDaily,
			Recurrence: scheduledomain.RecurrenceRule{
				Weekdays: scheduledomain.Weekdays{time.Monday},
			},
			Cutoff: scheduledomain.CutoffRule{TimeOfDay: "10:00", Timezone: "UTC"},
		},
	}
	rec := doRequest(t, srv, http.MethodPut, "/api/admin/schedule-config", testMember, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMissingUserHeaderUnauthorized(t *testing.T) {
	srv, _ := setupTestServer(t)
	putTestConfig(t, srv)

	rec := doRequest(t, srv, http.MethodGet, "/api/schedule?from=2026-09-01&to=2026-09-04", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
