package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/clock"
	"github.com/athenajq/lunchline/internal/events"
	"github.com/athenajq/lunchline/internal/observability/metrics"
	orderdomain "github.com/athenajq/lunchline/internal/order/domain"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	CfgSvc scheduleconfigdomain.Service
	Outbox *events.Outbox
	Config Config `optional:"true"`
}

// Worker archives active orders whose dates have all passed the current
// cutoff boundary, so reads stop carrying spent records forward.
type Worker struct {
	db     *gorm.DB
	log    *zap.Logger
	clk    clock.Clock
	cfgSvc scheduleconfigdomain.Service
	outbox *events.Outbox
	cfg    Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:     p.DB,
		log:    p.Log.Named("scheduler.sweep"),
		clk:    p.Clock,
		cfgSvc: p.CfgSvc,
		outbox: p.Outbox,
		cfg:    cfg,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(); err != nil {
			w.log.Warn("order sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	started := time.Now()
	archived, err := w.Sweep(ctx)
	metrics.Sweep().ObserveRun(time.Since(started), archived, err)
	return err
}

// Sweep runs one pass over every organization with active orders and returns
// the number of orders archived.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	if w.db == nil || w.cfgSvc == nil || w.outbox == nil {
		return 0, errors.New("sweep_worker_unavailable")
	}

	orgIDs, err := w.activeOrgs(ctx)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, orgID := range orgIDs {
		n, err := w.sweepOrg(ctx, orgID)
		archived += n
		if err != nil {
			return archived, err
		}
	}

	var backlog int64
	if err := w.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM orders WHERE status = ?`, orderdomain.StatusActive).
		Scan(&backlog).Error; err == nil {
		metrics.Sweep().SetBacklog(int(backlog))
	}

	return archived, nil
}

func (w *Worker) activeOrgs(ctx context.Context) ([]snowflake.ID, error) {
	var orgIDs []snowflake.ID
	err := w.db.WithContext(ctx).
		Raw(`SELECT DISTINCT org_id FROM orders WHERE status = ? ORDER BY org_id`, orderdomain.StatusActive).
		Scan(&orgIDs).Error
	if err != nil {
		return nil, err
	}
	return orgIDs, nil
}

func (w *Worker) sweepOrg(ctx context.Context, orgID snowflake.ID) (int, error) {
	cfg, err := w.cfgSvc.ActiveForOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, scheduleconfigdomain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	boundary, err := scheduledomain.CutoffBoundaryDate(cfg.Order, cfg.Lunch, w.clk.Now())
	if err != nil {
		w.log.Warn("skipping org with malformed cutoff",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
		return 0, nil
	}

	archived := 0
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch, err := w.lockActiveBatch(ctx, tx, orgID, w.cfg.BatchSize)
		if err != nil {
			return err
		}
		now := w.clk.Now()
		for i := range batch {
			order := &batch[i]
			dates, err := order.DateList()
			if err != nil {
				w.log.Warn("skipping order with undecodable dates",
					zap.String("order_id", order.ID.String()),
					zap.Error(err),
				)
				continue
			}
			record := scheduledomain.OrderRecord{ID: order.ID.String(), Dates: dates}
			if len(dates) == 0 || !record.LastDate().Before(boundary) {
				continue
			}

			if err := tx.WithContext(ctx).Exec(
				`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
				orderdomain.StatusArchived, now.UTC(), order.ID,
			).Error; err != nil {
				return err
			}

			payload := events.OrderEventPayload{
				OrderID: order.ID.String(),
				OrgID:   order.OrgID.String(),
				UserID:  order.UserID.String(),
			}
			if err := w.outbox.PublishTx(ctx, tx, events.Event{
				OrgID:     order.OrgID,
				Type:      events.EventOrderArchived,
				Payload:   payload.ToMap(),
				DedupeKey: "archived:" + order.ID.String(),
			}); err != nil {
				return err
			}
			archived++
		}
		return nil
	})
	if err != nil {
		return archived, err
	}

	if archived > 0 {
		w.log.Info("archived spent orders",
			zap.String("org_id", orgID.String()),
			zap.Int("count", archived),
			zap.String("boundary", boundary.String()),
		)
	}
	return archived, nil
}

func (w *Worker) lockActiveBatch(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, limit int) ([]orderdomain.Order, error) {
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}
	query := `SELECT * FROM orders
		 WHERE org_id = ? AND status = ?
		 ORDER BY id`
	// sqlite has no row locks; the clause only applies on postgres.
	if tx.Dialector.Name() == "postgres" {
		query += `
		 FOR UPDATE SKIP LOCKED`
	}
	query += `
		 LIMIT ?`

	var batch []orderdomain.Order
	err := tx.WithContext(ctx).
		Raw(query, orgID, orderdomain.StatusActive, limit).
		Scan(&batch).Error
	if err != nil {
		return nil, err
	}
	return batch, nil
}
