package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"

	"kasirbuku/backend/internal/domain"
)

func TestNoopDashboardCacheNeverHits(t *testing.T) {
	var c DashboardCache = NoopDashboardCache{}
	ctx := context.Background()
	if err := c.Set(ctx, "day:2026-10-16", &domain.Dashboard{Today: "2026-10-16"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "day:2026-10-16"); ok || err != nil {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestRedisDashboardCacheInvalidate(t *testing.T) {
	addr := os.Getenv("KASIRBUKU_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set KASIRBUKU_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	c := NewRedisDashboardCacheFromClient(client, fmt.Sprintf("kasirbuku-test:%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = c.Close()
	})
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	want := &domain.Dashboard{Period: domain.PeriodDay, Today: "2026-10-16", Summary: domain.SummaryStats{TotalSales: 15}}
	if err := c.Set(ctx, "day:2026-10-16", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "day:2026-10-16")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Summary.TotalSales != 15 {
		t.Fatalf("unexpected cached dashboard %+v", got)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, err := c.Get(ctx, "day:2026-10-16"); ok || err != nil {
		t.Fatalf("expected miss after invalidate, got ok=%v err=%v", ok, err)
	}
}
