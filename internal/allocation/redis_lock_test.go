package allocation

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisLockNilClient(t *testing.T) {
	if l := NewRedisLock(nil, "k", time.Second); l != nil {
		t.Fatalf("expected nil locker without a client")
	}
	// a nil entry in a chain is skipped
	release, ok, err := ChainLock{&LocalLock{}, NewRedisLock(nil, "k", time.Second)}.TryLock(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected chain to lock, got %v, %v", ok, err)
	}
	release()
}

func TestRedisLockExclusive(t *testing.T) {
	addr := os.Getenv("EXAM_TEST_REDIS")
	if addr == "" {
		t.Skip("EXAM_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	key := "exam:test:lock:" + time.Now().Format("150405.000000")
	a := NewRedisLock(rdb, key, time.Minute)
	b := NewRedisLock(rdb, key, time.Minute)

	release, ok, err := a.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("first lock: %v, %v", ok, err)
	}
	if _, ok, err := b.TryLock(ctx); err != nil || ok {
		t.Fatalf("second lock should be refused, got %v, %v", ok, err)
	}
	release()
	release2, ok, err := b.TryLock(ctx)
	if err != nil || !ok {
		t.Fatalf("lock after release: %v, %v", ok, err)
	}
	release2()
}
