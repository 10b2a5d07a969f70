// Package cache 提供合约只读调用的结果缓存
//
// 协议常量、活动基础信息等不可变或低频变化的数据在 TTL 内直接命中缓存。
// 支持进程内 bigcache 和共享 redis 两种后端。
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache 键值缓存接口
type Cache interface {
	// Get 读取缓存；未命中时 ok 为 false
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set 写入缓存；ttl 为 0 时使用后端默认 TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除缓存，键不存在不报错
	Delete(ctx context.Context, key string) error

	// Backend 后端名称，用于指标
	Backend() string

	// Close 释放资源
	Close() error
}

// 后端类型
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 缓存配置
type Config struct {
	Backend      string        `json:"backend"`
	DefaultTTL   time.Duration `json:"default_ttl"`
	MaxEntrySize int           `json:"max_entry_size"` // 字节，仅 memory
	Redis        RedisConfig   `json:"redis"`
}

// DefaultConfig 默认使用进程内缓存
func DefaultConfig() Config {
	return Config{
		Backend:      BackendMemory,
		DefaultTTL:   5 * time.Minute,
		MaxEntrySize: 4096,
		Redis:        DefaultRedisConfig(),
	}
}

// NewFromConfig 按配置创建缓存
func NewFromConfig(cfg Config) (Cache, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(cfg.DefaultTTL, cfg.MaxEntrySize)
	case BackendRedis:
		redisCfg := cfg.Redis
		if redisCfg.DefaultTTL <= 0 {
			redisCfg.DefaultTTL = cfg.DefaultTTL
		}
		return NewRedis(redisCfg)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Nop 不缓存任何内容
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)               { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error        { return nil }
func (Nop) Delete(context.Context, string) error                            { return nil }
func (Nop) Backend() string                                                 { return BackendNone }
func (Nop) Close() error                                                    { return nil }

var _ Cache = Nop{}
