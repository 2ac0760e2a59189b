package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"timeclock/config"
	pkgerrors "timeclock/pkg/errors"
	"timeclock/pkg/redis"
)

func TestLocalOwnerLocker_SerializesSameOwner(t *testing.T) {
	locker := newLocalOwnerLocker(time.Second)
	var inside, overlap int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "alice")
			if err != nil {
				t.Errorf("Lock 失败: %v", err)
				return
			}
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if overlap != 0 {
		t.Error("同一用户的锁不应被同时持有")
	}
	if len(locker.entries) != 0 {
		t.Errorf("释放后应回收条目，剩余: %d", len(locker.entries))
	}
}

func TestLocalOwnerLocker_DifferentOwnersDoNotBlock(t *testing.T) {
	locker := newLocalOwnerLocker(50 * time.Millisecond)

	unlockA, err := locker.Lock(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Lock alice 失败: %v", err)
	}
	defer unlockA()

	unlockB, err := locker.Lock(context.Background(), "bob")
	if err != nil {
		t.Fatalf("不同用户不应互相阻塞: %v", err)
	}
	unlockB()
}

func TestLocalOwnerLocker_ContextCancelled(t *testing.T) {
	locker := newLocalOwnerLocker(0)
	unlock, _ := locker.Lock(context.Background(), "alice")
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locker.Lock(ctx, "alice"); !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
		t.Errorf("期望 ErrLockNotAcquired，实际: %v", err)
	}
}

func TestLocalOwnerLocker_UnlockIdempotent(t *testing.T) {
	locker := newLocalOwnerLocker(50 * time.Millisecond)
	unlock, _ := locker.Lock(context.Background(), "alice")
	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), "alice")
	if err != nil {
		t.Fatalf("重复 unlock 后应可再次加锁: %v", err)
	}
	again()
}

func TestOwnerLocker_WithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("启动 miniredis 失败: %v", err)
	}
	defer mr.Close()

	rdb, err := redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("连接 miniredis 失败: %v", err)
	}
	defer rdb.Close()

	cfg := &config.LockConfig{TTL: time.Second, Wait: 50 * time.Millisecond}
	replicaA := NewOwnerLocker(cfg, rdb, zap.NewNop())
	replicaB := NewOwnerLocker(cfg, rdb, zap.NewNop())

	unlock, err := replicaA.Lock(context.Background(), "alice")
	if err != nil {
		t.Fatalf("副本 A 加锁失败: %v", err)
	}
	if !mr.Exists("timeclock:lock:punch:alice") {
		t.Error("应在 Redis 中持有锁")
	}

	// 另一个副本（独立的进程内锁）必须被 Redis 锁挡住
	if _, err := replicaB.Lock(context.Background(), "alice"); !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
		t.Errorf("期望 ErrLockNotAcquired，实际: %v", err)
	}

	unlock()
	if mr.Exists("timeclock:lock:punch:alice") {
		t.Error("释放后 Redis 锁应被删除")
	}

	unlockB, err := replicaB.Lock(context.Background(), "alice")
	if err != nil {
		t.Fatalf("释放后副本 B 应可加锁: %v", err)
	}
	unlockB()
}
