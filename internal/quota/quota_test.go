package quota

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := NewManager(rdb, 10000, 0.95, zerolog.Nop())
	return m, mr
}

func TestCheckQuotaNoUsage(t *testing.T) {
	m, _ := newTestManager(t)
	ok, err := m.CheckQuota(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected quota available with no usage recorded")
	}
}

func TestRecordUsageThenCheck(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if err := m.RecordUsage(ctx, 9999); err != nil {
		t.Fatal(err)
	}
	ok, err := m.CheckQuota(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected quota still available at 9999/10000")
	}

	if err := m.RecordUsage(ctx, 1); err != nil {
		t.Fatal(err)
	}
	ok, err = m.CheckQuota(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected quota exhausted at 10000/10000")
	}
}

func TestUsageAccumulates(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.RecordUsage(ctx, 100)
	m.RecordUsage(ctx, 50)
	usage, err := m.Usage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if usage != 150 {
		t.Errorf("usage = %d, want 150", usage)
	}
}
