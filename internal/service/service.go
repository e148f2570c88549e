package service

import (
	"context"
	"log"
	"time"

	"kasirbuku/backend/internal/analytics"
	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/stock"
	"kasirbuku/backend/internal/store"
	"kasirbuku/backend/internal/xid"
)

type Service struct {
	repo      store.Repository
	ledger    *stock.Ledger
	analytics *analytics.Engine
	location  *time.Location
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, which decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone whose midnight starts a new day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func New(repo store.Repository, engine *analytics.Engine, opts ...Option) *Service {
	if engine == nil {
		engine = analytics.NewEngine(nil, 0)
	}

	s := &Service{
		repo:      repo,
		ledger:    stock.NewLedger(repo),
		analytics: engine,
		location:  time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return analytics.Today(s.now(), s.location)
}

func (s *Service) todayString() string {
	return s.today().Format(domain.DateLayout)
}

// afterCommit tells readers the ledger moved. Neither step can fail the
// mutation that already committed.
func (s *Service) afterCommit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	if err := s.analytics.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: failed to invalidate dashboard cache after %s: %v", action, err)
	}
	s.logAudit(ctx, action, entityType, entityID, detail)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	logs, err := s.repo.ListAuditLogs(ctx, limit)
	if err != nil {
		return nil, store.Wrap("list audit logs", err)
	}
	return logs, nil
}
