package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timeclock/config"
)

// Client Redis 客户端封装
// 用于多实例部署下的用户级打卡互斥锁
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 互斥锁 ──

const lockPrefix = "timeclock:lock:"

// ErrLockHeld 锁已被其他持有者占用
var ErrLockHeld = errors.New("锁已被占用")

// 仅当值与持有者 token 一致时删除，避免误删他人续上的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 尝试获取锁（SET NX PX），已被占用时返回 ErrLockHeld
func (c *Client) TryLock(ctx context.Context, key, token string, ttl time.Duration) error {
	ok, err := c.rdb.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("获取 Redis 锁失败: %w", err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Lock 在 wait 时间内轮询获取锁
func (c *Client) Lock(ctx context.Context, key, token string, ttl, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	backoff := 10 * time.Millisecond
	for {
		err := c.TryLock(ctx, key, token, ttl)
		if !errors.Is(err, ErrLockHeld) {
			return err
		}
		if time.Now().Add(backoff).After(deadline) {
			return ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// Unlock 释放锁；token 不匹配（锁已过期被他人获取）时不做任何操作
func (c *Client) Unlock(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.rdb, []string{lockPrefix + key}, token).Int()
	if err != nil {
		return false, fmt.Errorf("释放 Redis 锁失败: %w", err)
	}
	return n == 1, nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
