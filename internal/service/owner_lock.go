package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timeclock/config"
	pkgerrors "timeclock/pkg/errors"
	"timeclock/pkg/metrics"
	"timeclock/pkg/redis"
)

// OwnerLocker 用户级互斥锁
//
// 同一 authID 的打卡写操作串行执行；返回的 unlock 必须调用且只调用一次。
type OwnerLocker interface {
	Lock(ctx context.Context, authID string) (unlock func(), err error)
}

// NewOwnerLocker 创建用户级锁
// 始终使用进程内锁；配置了 Redis 时再叠加分布式锁，保证多副本部署下同样串行
func NewOwnerLocker(cfg *config.LockConfig, rdb *redis.Client, logger *zap.Logger) OwnerLocker {
	local := newLocalOwnerLocker(cfg.Wait)
	if rdb == nil {
		return local
	}
	return chainLocker{local, &redisOwnerLocker{client: rdb, ttl: cfg.TTL, wait: cfg.Wait, logger: logger}}
}

// ────────────────────── 进程内锁 ──────────────────────

type ownerEntry struct {
	sem  chan struct{}
	refs int
}

type localOwnerLocker struct {
	mu      sync.Mutex
	entries map[string]*ownerEntry
	wait    time.Duration
}

func newLocalOwnerLocker(wait time.Duration) *localOwnerLocker {
	return &localOwnerLocker{entries: make(map[string]*ownerEntry), wait: wait}
}

func (l *localOwnerLocker) Lock(ctx context.Context, authID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[authID]
	if !ok {
		e = &ownerEntry{sem: make(chan struct{}, 1)}
		l.entries[authID] = e
	}
	e.refs++
	l.mu.Unlock()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	start := time.Now()
	select {
	case e.sem <- struct{}{}:
		metrics.PunchLockWait.Observe(time.Since(start).Seconds())
	case <-ctx.Done():
		l.release(authID, e)
		metrics.PunchLockTimeouts.Inc()
		return nil, pkgerrors.ErrLockNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(authID, e)
		})
	}, nil
}

// release 引用计数归零时回收条目，避免 map 无限增长
func (l *localOwnerLocker) release(authID string, e *ownerEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, authID)
	}
	l.mu.Unlock()
}

// ────────────────────── Redis 分布式锁 ──────────────────────

type redisOwnerLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

func (l *redisOwnerLocker) Lock(ctx context.Context, authID string) (func(), error) {
	token := uuid.NewString()
	key := "punch:" + authID

	if err := l.client.Lock(ctx, key, token, l.ttl, l.wait); err != nil {
		if errors.Is(err, redis.ErrLockHeld) || errors.Is(err, context.DeadlineExceeded) {
			metrics.PunchLockTimeouts.Inc()
			return nil, pkgerrors.ErrLockNotAcquired
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求上下文可能已取消，释放使用独立的超时
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if _, err := l.client.Unlock(ctx, key, token); err != nil {
				l.logger.Warn("释放 Redis 打卡锁失败", zap.String("auth_id", authID), zap.Error(err))
			}
		})
	}, nil
}

// ────────────────────── 组合 ──────────────────────

// chainLocker 按顺序获取，逆序释放
type chainLocker []OwnerLocker

func (c chainLocker) Lock(ctx context.Context, authID string) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, l := range c {
		unlock, err := l.Lock(ctx, authID)
		if err != nil {
			releaseAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return releaseAll, nil
}
